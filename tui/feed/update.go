package feed

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/lifecycle"
	"github.com/CrestNiraj12/whispernet/tui/compose"
)

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case engine.FeedLoadedMsg:
		m.loading = false
		out, cmd := m.feed.Update(msg)
		m.applyLoad(out)
		return m, cmd

	case engine.SearchLoadedMsg:
		out, cmd := m.feed.Update(msg)
		m.applyLoad(out)
		return m, cmd

	case engine.ProfilesResolvedMsg, lifecycle.DebouncedMsg:
		out, cmd := m.feed.Update(msg)
		m.apply(out, "")
		return m, cmd

	case engine.MessageLikedMsg:
		out, _ := m.feed.Update(msg)
		m.apply(out, "")
		return m, nil

	case engine.ReportedMsg:
		out, _ := m.feed.Update(msg)
		if out.Err != nil && errors.Is(out.Err, engine.ErrReportPending) {
			m.setErr(fmt.Errorf("%w (press ! to send again)", out.Err))
			return m, nil
		}
		m.apply(out, "Reported. Thanks for keeping WhisperNet kind.")
		return m, nil

	case engine.MessageCreatedMsg:
		out, _ := m.feed.Update(msg)
		success := "Whisper posted."
		if msg.Err == nil && msg.Message.Status == domain.ModerationPending {
			success = "Whisper sent. It appears once a moderator approves it."
		}
		m.apply(out, success)
		if out.Changed && m.tab == tabFeed {
			m.cursor = 0
			m.start = 0
		}
		return m, nil

	case engine.CommentCreatedMsg:
		out, _ := m.feed.Update(msg)
		m.apply(out, "")
		if m.detail != nil {
			tout, _ := m.detail.thread.Update(msg)
			m.apply(tout, "Comment posted.")
			m.detail.clamp()
		}
		return m, nil

	case engine.CommentsLoadedMsg, engine.CommentLikedMsg:
		if m.detail == nil {
			return m, nil
		}
		out, _ := m.detail.thread.Update(msg)
		if _, ok := msg.(engine.CommentsLoadedMsg); ok {
			m.loading = false
			m.detail.loading = false
			m.applyLoad(out)
		} else {
			m.apply(out, "")
		}
		m.detail.clamp()
		return m, nil
	}

	return m, nil
}

// apply shows the result of handling an engine message.
func (m *Model) apply(out engine.Outcome, success string) {
	if !out.Handled {
		return
	}
	switch {
	case out.Err != nil && out.Advisory:
		m.notice = advisory(out)
	case out.Err != nil:
		m.setErr(out.Err)
	case out.Changed && success != "":
		m.setStatus(success)
	}
	if out.Changed {
		m.clampCursor()
	}
}

// applyLoad is apply for loads: a fresh server load clears the advisory.
func (m *Model) applyLoad(out engine.Outcome) {
	if out.Handled && out.Changed && out.Err == nil && out.Source == engine.SourceServer {
		m.notice = ""
	}
	m.apply(out, "")
}

func advisory(out engine.Outcome) string {
	reason := "offline"
	switch {
	case errors.Is(out.Err, domain.ErrServerRejected):
		reason = "server unavailable"
	case errors.Is(out.Err, domain.ErrParse):
		reason = "unexpected server response"
	}
	return fmt.Sprintf("%s: showing %s data", reason, out.Source)
}

// Submit sends what the composer produced: a new whisper, a comment or a
// reply.
func (m Model) Submit(msg compose.DoneMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.setErr(msg.Err)
		return m, nil
	}
	if msg.Content == "" {
		m.setStatus("Cancelled.")
		return m, nil
	}

	if !msg.Target.IsComment() {
		cmd, err := m.feed.CreateMessage(msg.Content)
		if err != nil {
			m.setErr(err)
			return m, nil
		}
		m.setStatus("Posting...")
		return m, cmd
	}

	if m.detail == nil || m.detail.thread.MessageID() != msg.Target.MessageID {
		m.setErr(fmt.Errorf("thread closed before the comment was sent"))
		return m, nil
	}
	cmd, err := m.detail.thread.Submit(msg.Content, msg.Target.ParentID)
	if err != nil {
		m.setErr(err)
		return m, nil
	}
	m.detail.focusDrafts()
	m.setStatus("Sending...")
	return m, cmd
}
