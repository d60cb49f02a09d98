package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/search"
	"github.com/desertthunder/lectures/internal/services"
	"github.com/desertthunder/lectures/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LectureListView ViewState = iota
	DetailView
	QueryView
	FilterView
)

// Searcher runs a filtered catalog search.
type Searcher interface {
	Search(ctx context.Context, f search.Filter) (*search.Page, error)
}

// ChoiceLoader lists the topics, tags and ranks available as filters.
type ChoiceLoader interface {
	Choices(ctx context.Context) (*tasks.Choices, error)
}

// Opener opens a URL outside the terminal.
type Opener func(url string) error

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	searcher    Searcher
	loader      ChoiceLoader
	open        Opener
	filter      search.Filter
	dirty       bool
	page        *search.Page
	lectureList list.Model
	termList    list.Model
	choices     *tasks.Choices
	selected    *search.Result
	query       textinput.Model
	status      string
	err         error
	width       int
	height      int
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, searcher Searcher, loader ChoiceLoader, open Opener) *Model {
	query := textinput.New()
	query.Placeholder = "title contains..."
	query.CharLimit = 200

	lectures := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	lectures.Title = "Lectures"
	lectures.SetFilteringEnabled(false)
	lectures.SetShowHelp(false)

	terms := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	terms.Title = "Filters"
	terms.SetShowHelp(false)

	return &Model{
		ctx:         ctx,
		view:        LectureListView,
		searcher:    searcher,
		loader:      loader,
		open:        open,
		filter:      search.Filter{Sort: search.SortDate, Page: 1},
		lectureList: lectures,
		termList:    terms,
		query:       query,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Filter returns the filter of the page on screen.
func (m *Model) Filter() search.Filter { return m.filter }

// Init initializes the TUI by loading the first page.
func (m *Model) Init() tea.Cmd {
	return m.fetchPage(m.filter)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lectureList.SetSize(msg.Width-4, msg.Height-8)
		m.termList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			return m.handleErrorKeys(msg)
		}
		switch m.view {
		case LectureListView:
			return m.handleLectureListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case QueryView:
			return m.handleQueryKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		data := msg.data.(pageFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.filter = data.filter
		m.page = data.page
		items := make([]list.Item, len(data.page.Lectures))
		for i, r := range data.page.Lectures {
			items[i] = lectureItem{result: r}
		}
		m.lectureList.ResetSelected()
		return m, m.lectureList.SetItems(items)

	case MsgChoicesFetched:
		data := msg.data.(choicesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.choices = data.choices
		return m, m.refreshTerms()

	case MsgBrowserOpened:
		data := msg.data.(struct {
			url string
			err error
		})
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("could not open %s: %v", data.url, data.err))
		} else {
			m.status = styles.ok.Render("opened " + data.url)
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case LectureListView:
		return m.renderLectureList()
	case DetailView:
		return m.renderDetail()
	case QueryView:
		return m.renderQuery()
	case FilterView:
		return m.renderFilters()
	default:
		return ""
	}
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		m.view = LectureListView
	}
	return m, nil
}

func (m *Model) handleLectureListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.lectureList.SelectedItem().(lectureItem); ok {
			result := item.result
			m.selected = &result
			m.status = ""
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.page != nil && m.page.HasNext {
			f := m.filter
			f.Page++
			return m, m.fetchPage(f)
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.filter.Page > 1 {
			f := m.filter
			f.Page--
			return m, m.fetchPage(f)
		}
		return m, nil
	case key.Matches(msg, m.keys.sort):
		f := m.filter
		if f.Sort == search.SortRank {
			f.Sort = search.SortDate
		} else {
			f.Sort = search.SortRank
		}
		f.Page = 1
		return m, m.fetchPage(f)
	case key.Matches(msg, m.keys.search):
		m.view = QueryView
		m.query.SetValue(m.filter.Query)
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.filter):
		m.view = FilterView
		m.dirty = false
		if m.choices == nil {
			return m, m.fetchChoices()
		}
		return m, m.refreshTerms()
	case key.Matches(msg, m.keys.clear):
		return m, m.fetchPage(search.Filter{Sort: m.filter.Sort, Page: 1})
	}

	var cmd tea.Cmd
	m.lectureList, cmd = m.lectureList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = LectureListView
		m.selected = nil
	case key.Matches(msg, m.keys.open):
		if m.selected != nil && m.open != nil {
			return m, m.openURL(services.ShortURL(m.selected.YouTubeID))
		}
	}
	return m, nil
}

// handleQueryKeys feeds keystrokes to the text input; "q" is typed, not quit.
func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.query.Blur()
		m.view = LectureListView
		return m, nil
	case tea.KeyEnter:
		m.query.Blur()
		m.view = LectureListView
		f := m.filter
		f.Query = strings.TrimSpace(m.query.Value())
		f.Page = 1
		return m, m.fetchPage(f)
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = LectureListView
		if m.dirty {
			m.dirty = false
			f := m.filter
			f.Page = 1
			return m, m.fetchPage(f)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.termList.SelectedItem().(termItem); ok {
			m.toggle(item)
			m.dirty = true
			return m, m.refreshTerms()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.termList, cmd = m.termList.Update(msg)
	return m, cmd
}

// toggle flips item in the filter. A rank replaces any previously selected rank.
func (m *Model) toggle(item termItem) {
	id := item.term.ID
	switch item.kind {
	case models.KindTopic:
		m.filter.TopicIDs = toggleID(m.filter.TopicIDs, id)
	case models.KindTag:
		m.filter.TagIDs = toggleID(m.filter.TagIDs, id)
	case models.KindRank:
		if m.filter.RankID != nil && *m.filter.RankID == id {
			m.filter.RankID = nil
		} else {
			m.filter.RankID = &id
		}
	}
}

func toggleID(ids []int64, id int64) []int64 {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1)
	}
	return append(slices.Clone(ids), id)
}

// refreshTerms rebuilds the filter list, keeping the cursor in place.
func (m *Model) refreshTerms() tea.Cmd {
	if m.choices == nil {
		return nil
	}

	var items []list.Item
	add := func(kind models.TaxonomyKind, terms []*models.Term, selected func(int64) bool) {
		for _, t := range terms {
			items = append(items, termItem{term: t, kind: kind, selected: selected(t.ID)})
		}
	}
	add(models.KindTopic, m.choices.Topics, func(id int64) bool { return slices.Contains(m.filter.TopicIDs, id) })
	add(models.KindTag, m.choices.Tags, func(id int64) bool { return slices.Contains(m.filter.TagIDs, id) })
	add(models.KindRank, m.choices.Ranks, func(id int64) bool { return m.filter.RankID != nil && *m.filter.RankID == id })

	index := m.termList.Index()
	cmd := m.termList.SetItems(items)
	if index < len(items) {
		m.termList.Select(index)
	}
	return cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LectureListView:
		m.lectureList, cmd = m.lectureList.Update(msg)
	case FilterView:
		m.termList, cmd = m.termList.Update(msg)
	case QueryView:
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPage(f search.Filter) tea.Cmd {
	return func() tea.Msg {
		page, err := m.searcher.Search(m.ctx, f)
		return pageFetchedMsg(f, page, err)
	}
}

func (m *Model) fetchChoices() tea.Cmd {
	return func() tea.Msg {
		choices, err := m.loader.Choices(m.ctx)
		return choicesFetchedMsg(choices, err)
	}
}

func (m *Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg(url, m.open(url))
	}
}

// summary describes the active filter and pagination.
func (m *Model) summary() string {
	parts := []string{}
	if m.filter.Query != "" {
		parts = append(parts, fmt.Sprintf("%q", m.filter.Query))
	}
	if n := len(m.filter.TopicIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d topics", n))
	}
	if n := len(m.filter.TagIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d tags", n))
	}
	if m.filter.RankID != nil {
		parts = append(parts, "rank")
	}
	parts = append(parts, "sort: "+string(m.filter.Sort))
	if m.page != nil {
		pages := max(m.page.TotalPages, 1)
		parts = append(parts, fmt.Sprintf("page %d/%d (%d lectures)", m.page.CurrentPage, pages, m.page.Total))
	}
	return strings.Join(parts, " • ")
}

func (m *Model) renderLectureList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev, m.keys.sort, m.keys.search, m.keys.filter, m.keys.clear, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	body := m.lectureList.View()
	if m.page != nil && len(m.page.Lectures) == 0 {
		body = styles.title.Render("Lectures") + "\n" + styles.warn.Render("No lectures found matching your criteria.")
	}
	return fmt.Sprintf("%s\n%s\n\n%s", styles.help.Render(m.summary()), body, helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	r := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(r.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Published: %s\n", r.PublishDate.UTC().Format("2006-01-02"))
	rank := "none"
	if r.Rank != nil {
		rank = *r.Rank
	}
	fmt.Fprintf(&b, "Rank:      %s\n", rank)
	fmt.Fprintf(&b, "Topics:    %s\n", strings.Join(r.Topics, ", "))
	fmt.Fprintf(&b, "Tags:      %s\n", strings.Join(r.Tags, ", "))
	fmt.Fprintf(&b, "URL:       %s\n", services.ShortURL(r.YouTubeID))
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	helpKeys := []key.Binding{m.keys.open, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderQuery() string {
	title := styles.title.Render("Search titles")
	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		m.keys.back,
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.query.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderFilters() string {
	if m.choices == nil {
		return styles.help.Render("Loading filters...")
	}
	helpKeys := []key.Binding{m.keys.toggle, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.termList.View(), m.help.ShortHelpView(helpKeys))
}
