// Package ui implements an interactive terminal catalog browser using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [LectureListView] : one page of search results
//  2. [DetailView] : a single lecture, with an option to open it in the browser
//  3. [QueryView] : edit the title search text
//  4. [FilterView] : toggle topic, tag and rank filters
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every filter change re-runs the search from page 1; paging keeps the filter.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n/p, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
