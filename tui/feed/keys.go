package feed

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/tui/compose"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showAllHints {
		if key.Matches(msg, m.keys.ToggleHints) || msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
			m.showAllHints = false
		}
		return m, nil
	}
	if m.typing {
		return m.handleSearchInput(msg)
	}
	if key.Matches(msg, m.keys.ToggleHints) {
		m.showAllHints = true
		return m, nil
	}
	if m.detail != nil {
		return m.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.Items())-1 {
			m.cursor++
		}
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.Top):
		m.cursor, m.start = 0, 0

	case key.Matches(msg, m.keys.NextTab):
		m = m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab):
		m = m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, m.keys.Refresh):
		return m.Refresh()

	case key.Matches(msg, m.keys.Enter):
		if sel, ok := m.Selected(); ok {
			return m.openDetail(sel)
		}

	case key.Matches(msg, m.keys.Like):
		if sel, ok := m.Selected(); ok {
			return m.like(sel.ID)
		}
	case key.Matches(msg, m.keys.Report):
		if sel, ok := m.Selected(); ok {
			return m.report(sel.ID)
		}

	case key.Matches(msg, m.keys.NewEditor), key.Matches(msg, m.keys.NewInline):
		if _, err := m.deps.Session.RequireIdentity(); err != nil {
			m.setErr(err)
			return m, nil
		}
		inline := key.Matches(msg, m.keys.NewInline)
		return m, func() tea.Msg { return ComposeMsg{Inline: inline} }

	case key.Matches(msg, m.keys.Search):
		m = m.switchTab(tabSearch)
		m.typing = true
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Tags):
		return m.nextTag(), nil

	case key.Matches(msg, m.keys.Incognito):
		on := !m.deps.Session.Incognito()
		m.deps.Session.SetIncognito(on)
		if on {
			m.setStatus("Incognito on: unhinged whispers shown, new whispers post as unhinged.")
		} else {
			m.setStatus("Incognito off.")
		}
		m.clampCursor()
		return m, m.emitPrefsChanged()

	case key.Matches(msg, m.keys.Sort):
		if m.order == app.SortMostLiked {
			m.order = app.SortNewest
		} else {
			m.order = app.SortMostLiked
		}
		m.cursor, m.start = 0, 0
		return m, m.emitPrefsChanged()

	case key.Matches(msg, m.keys.Rankings):
		return m, func() tea.Msg { return OpenRankingsMsg{} }
	}
	return m, nil
}

func (m Model) switchTab(t tab) Model {
	if t == m.tab {
		return m
	}
	m.tab = t
	m.cursor, m.start = 0, 0
	return m
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.typing = false
		m.search.Blur()
		return m, m.feed.SearchNow()
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.cursor, m.start = 0, 0
	return m, tea.Batch(cmd, m.feed.SetQuery(m.search.Value()))
}

// nextTag filters the search tab by the next tag of the feed.
func (m Model) nextTag() Model {
	tags := m.feed.Tags()
	if len(tags) == 0 {
		m.setStatus("No tags yet.")
		return m
	}
	if m.tagIndex >= len(tags) {
		m.tagIndex = 0
	}
	tag := tags[m.tagIndex]
	m.tagIndex++
	m.feed.FilterTag(tag)
	m.search.SetValue("")
	m = m.switchTab(tabSearch)
	m.cursor, m.start = 0, 0
	return m
}

func (m Model) like(id string) (Model, tea.Cmd) {
	cmd, err := m.feed.ToggleLike(id)
	if err != nil {
		m.refuse(err)
		return m, nil
	}
	return m, cmd
}

func (m Model) report(id string) (Model, tea.Cmd) {
	cmd, err := m.feed.Report(id)
	switch {
	case err != nil:
		m.refuse(err)
	case cmd == nil:
		m.setStatus("Already reported.")
	}
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	d := m.detail
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		return m.closeDetail(), nil
	case key.Matches(msg, m.keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if d.cursor < len(d.rows()) {
			d.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		d.cursor = 0
	case key.Matches(msg, m.keys.Refresh):
		d.loading = true
		return m, tea.Batch(d.thread.Load(), m.feed.Load())

	case key.Matches(msg, m.keys.Like):
		row, ok := d.selectedRow()
		if !ok {
			return m.like(d.messageID)
		}
		cmd, err := d.thread.ToggleLike(row.Comment.ID)
		if err != nil {
			m.refuse(err)
			return m, nil
		}
		return m, cmd

	case key.Matches(msg, m.keys.Report):
		if d.cursor == 0 {
			return m.report(d.messageID)
		}

	case key.Matches(msg, m.keys.Reply), key.Matches(msg, m.keys.ReplyInline):
		if _, err := m.deps.Session.RequireIdentity(); err != nil {
			m.setErr(err)
			return m, nil
		}
		target := compose.Target{MessageID: d.messageID}
		if row, ok := d.selectedRow(); ok {
			if row.Comment.IsTemporary() {
				m.setErr(domain.ErrNotSynced)
				return m, nil
			}
			target.ParentID = row.Comment.ID
			target.ReplyTo = row.Comment.Author
		}
		inline := key.Matches(msg, m.keys.ReplyInline)
		return m, func() tea.Msg { return ComposeMsg{Target: target, Inline: inline} }

	case key.Matches(msg, m.keys.Retry):
		row, ok := d.selectedRow()
		if !ok {
			return m, nil
		}
		cmd, err := d.thread.Retry(row.Comment.ID)
		if err != nil {
			m.refuse(err)
			return m, nil
		}
		if cmd != nil {
			m.setStatus("Sending again...")
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) emitPrefsChanged() tea.Cmd {
	p := PrefsChangedMsg{Incognito: m.deps.Session.Incognito(), Sort: m.order}
	return func() tea.Msg { return p }
}

// refuse shows why a key did nothing. A repeat while the previous change is
// still saving is dropped without a message.
func (m *Model) refuse(err error) {
	if errors.Is(err, domain.ErrInFlight) {
		return
	}
	m.setErr(err)
}
