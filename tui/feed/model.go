package feed

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/tui/common"
	"github.com/CrestNiraj12/whispernet/tui/compose"
)

type tab int

const (
	tabFeed tab = iota
	tabTrending
	tabSearch
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabTrending:
		return "Trending"
	case tabSearch:
		return "Search"
	default:
		return "Feed"
	}
}

// --- Messages ---

// ComposeMsg asks the root to open the composer.
type ComposeMsg struct {
	Target  compose.Target
	Inline  bool
	Content string
}

// PrefsChangedMsg is emitted when a persisted preference changes.
type PrefsChangedMsg struct {
	Incognito bool
	Sort      app.SortOrder
}

// OpenRankingsMsg asks the root to show the leaderboard.
type OpenRankingsMsg struct{}

// Deps are the collaborators of the feed view.
type Deps struct {
	Feed      *engine.Feed
	Comments  app.CommentService
	Snapshots app.Snapshots    // optional
	Fallback  app.FallbackData // optional
	Session   *app.Session
	Sort      app.SortOrder
}

// --- Model ---

// Model holds the state for the feed, trending, search and thread views.
type Model struct {
	deps    Deps
	feed    *engine.Feed
	keys    common.KeyMap
	spinner spinner.Model
	search  textinput.Model

	tab          tab
	order        app.SortOrder
	cursor       int
	start        int
	tagIndex     int
	loading      bool
	typing       bool
	showAllHints bool
	width        int
	height       int

	detail *detail

	status string // transient success notice
	notice string // advisory, e.g. offline data
	err    error

	now func() time.Time
}

// New creates a feed model with injected dependencies.
func New(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C6A0F6"))

	ti := textinput.New()
	ti.Placeholder = "search whispers, authors or #tags"
	ti.CharLimit = 100
	ti.Prompt = "/ "

	order := deps.Sort
	if order != app.SortMostLiked {
		order = app.SortNewest
	}
	if deps.Session == nil {
		deps.Session = app.NewSession()
	}
	return Model{
		deps:    deps,
		feed:    deps.Feed,
		keys:    common.DefaultKeyMap(),
		spinner: s,
		search:  ti,
		order:   order,
		loading: true,
		width:   80,
		height:  24,
		now:     time.Now,
	}
}

// Init starts the initial feed fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.feed.Load(), m.spinner.Tick)
}

// Refresh re-fetches the feed, and the thread when one is open.
func (m Model) Refresh() (Model, tea.Cmd) {
	m.loading = true
	cmds := []tea.Cmd{m.feed.Load()}
	if m.detail != nil {
		cmds = append(cmds, m.detail.thread.Load())
	}
	if m.tab == tabSearch && m.feed.Query() != "" {
		cmds = append(cmds, m.feed.SearchNow())
	}
	return m, tea.Batch(cmds...)
}

// Items returns the whispers of the active tab in display order.
func (m Model) Items() []domain.Message {
	switch m.tab {
	case tabTrending:
		return m.feed.Trending()
	case tabSearch:
		return m.feed.Results(m.order)
	default:
		return m.feed.Visible(m.order)
	}
}

// Selected returns the focused whisper, if any.
func (m Model) Selected() (domain.Message, bool) {
	items := m.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.Message{}, false
	}
	return items[m.cursor], true
}

// InDetail reports whether a thread is open.
func (m Model) InDetail() bool { return m.detail != nil }

// Typing reports whether the search input has focus, so plain keys belong to it.
func (m Model) Typing() bool { return m.typing }

// Modal reports whether the view consumes the quit key itself: a thread,
// the search input or the key dialog is open.
func (m Model) Modal() bool { return m.detail != nil || m.typing || m.showAllHints }

// Loading returns whether the feed is currently loading.
func (m Model) Loading() bool { return m.loading }

// Err returns the last error shown to the user.
func (m Model) Err() error { return m.err }

// Order returns the active sort order.
func (m Model) Order() app.SortOrder { return m.order }

// Close cancels everything the view has in flight.
func (m Model) Close() {
	if m.detail != nil {
		m.detail.thread.Close()
	}
	m.feed.Close()
}

func (m *Model) clampCursor() {
	n := len(m.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	per := m.cardsPerPage()
	if m.cursor < m.start {
		m.start = m.cursor
	}
	if m.cursor >= m.start+per {
		m.start = m.cursor - per + 1
	}
	if m.start < 0 {
		m.start = 0
	}
}

func (m Model) cardsPerPage() int {
	return max((m.height-10)/cardHeight, 1)
}

func (m *Model) setErr(err error) {
	m.err = err
	if err != nil {
		m.status = ""
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.err = nil
}
