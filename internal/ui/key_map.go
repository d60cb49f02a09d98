package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	next   key.Binding
	prev   key.Binding
	sort   key.Binding
	search key.Binding
	filter key.Binding
	clear  key.Binding
	toggle key.Binding
	open   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		sort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("space", "toggle")),
		open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.next, k.prev, k.sort},
		{k.search, k.filter, k.clear},
		{k.open, k.back, k.quit},
	}
}
