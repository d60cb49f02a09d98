package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lectures/internal/search"
	"github.com/desertthunder/lectures/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgChoicesFetched
	MsgBrowserOpened
)

type pageFetched struct {
	filter search.Filter
	page   *search.Page
	err    error
}

type choicesFetched struct {
	choices *tasks.Choices
	err     error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(f search.Filter, page *search.Page, err error) Msg {
	return Msg{kind: MsgPageFetched, data: pageFetched{filter: f, page: page, err: err}}
}

// choicesFetchedMsg is the constructor for [MsgChoicesFetched]
func choicesFetchedMsg(choices *tasks.Choices, err error) Msg {
	return Msg{kind: MsgChoicesFetched, data: choicesFetched{choices: choices, err: err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: struct {
		url string
		err error
	}{url, err}}
}
