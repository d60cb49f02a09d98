package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/search"
)

var (
	_ list.Item = lectureItem{}
	_ list.Item = termItem{}
)

// lectureItem wraps [search.Result] to implement [list.Item].
type lectureItem struct {
	result search.Result
}

func (i lectureItem) FilterValue() string { return i.result.Title }
func (i lectureItem) Title() string       { return i.result.Title }
func (i lectureItem) Description() string {
	parts := []string{i.result.PublishDate.UTC().Format("2006-01-02")}
	if i.result.Rank != nil {
		parts = append(parts, *i.result.Rank)
	}
	if len(i.result.Topics) > 0 {
		parts = append(parts, strings.Join(i.result.Topics, ", "))
	}
	for _, tag := range i.result.Tags {
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " • ")
}

// termItem wraps a [models.Term] offered as a filter.
type termItem struct {
	term     *models.Term
	kind     models.TaxonomyKind
	selected bool
}

func (i termItem) FilterValue() string { return i.term.Name }
func (i termItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, i.term.Name)
}
func (i termItem) Description() string { return i.kind.Label() }
