// Package rankings renders the kindness leaderboard.
package rankings

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/tui/common"
)

// BackMsg asks the root to return to the feed.
type BackMsg struct{}

// Model holds the leaderboard view state.
type Model struct {
	rankings *engine.Rankings
	keys     common.KeyMap
	spinner  spinner.Model
	cursor   int
	loading  bool
	loaded   bool
	notice   string
	err      error
	width    int
	height   int
	me       string
}

// New creates the leaderboard view. me is the user id to highlight.
func New(r *engine.Rankings, me string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C6A0F6"))
	return Model{
		rankings: r,
		keys:     common.DefaultKeyMap(),
		spinner:  s,
		width:    80,
		height:   24,
		me:       me,
	}
}

// Open shows the view, loading the leaderboard the first time.
func (m Model) Open() (Model, tea.Cmd) {
	if m.loaded || m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.rankings.Load(), m.spinner.Tick)
}

// Highlight marks the rows of user id as the viewer's own.
func (m Model) Highlight(id string) Model {
	m.me = id
	return m
}

// Entries returns the leaderboard rows.
func (m Model) Entries() []domain.RankingEntry { return m.rankings.Entries() }

// Err returns the last load error.
func (m Model) Err() error { return m.err }

// Update handles messages for the leaderboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case engine.RankingsLoadedMsg:
		out, _ := m.rankings.Update(msg)
		if !out.Handled {
			return m, nil
		}
		m.loading = false
		switch {
		case out.Err != nil && out.Advisory:
			m.loaded = true
			m.err = nil
			m.notice = fmt.Sprintf("%s: showing %s rankings", reason(out.Err), out.Source)
		case out.Err != nil:
			m.err = out.Err
		case out.Changed:
			m.loaded = true
			m.err, m.notice = nil, ""
		}
		if n := len(m.Entries()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Rankings):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.Entries())-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, tea.Batch(m.rankings.Load(), m.spinner.Tick)
		}
	}
	return m, nil
}

func reason(err error) string {
	if errors.Is(err, domain.ErrServerRejected) {
		return "leaderboard unavailable"
	}
	return "offline"
}
