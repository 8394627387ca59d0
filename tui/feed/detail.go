package feed

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/lifecycle"
	"github.com/CrestNiraj12/whispernet/store"
)

// detail is an open thread. Cursor 0 is the whisper itself; row i is
// cursor i+1.
type detail struct {
	messageID string
	thread    *engine.Thread
	cursor    int
	loading   bool
}

func (d *detail) rows() []store.Row { return d.thread.Rows() }

func (d *detail) selectedRow() (store.Row, bool) {
	rows := d.rows()
	i := d.cursor - 1
	if i < 0 || i >= len(rows) {
		return store.Row{}, false
	}
	return rows[i], true
}

func (d *detail) clamp() {
	n := len(d.rows())
	if d.cursor > n {
		d.cursor = n
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

// focusDrafts moves the cursor to the newest local draft.
func (d *detail) focusDrafts() {
	for i, r := range d.rows() {
		if r.Comment.IsTemporary() && !r.Comment.Unsynced {
			d.cursor = i + 1
			return
		}
	}
}

// openDetail opens the thread of a whisper. The thread gets its own
// lifecycle scoped under the feed's, so closing either cancels its loads.
func (m Model) openDetail(msg domain.Message) (Model, tea.Cmd) {
	if m.detail != nil {
		m.detail.thread.Close()
	}
	th := engine.NewThread(msg.ID, engine.ThreadDeps{
		Comments:  m.deps.Comments,
		Snapshots: m.deps.Snapshots,
		Fallback:  m.deps.Fallback,
		Session:   m.deps.Session,
		Lifecycle: lifecycle.New(m.feed.Lifecycle().Context()),
	})
	m.detail = &detail{messageID: msg.ID, thread: th, loading: true}
	m.status, m.err = "", nil
	return m, th.Load()
}

// closeDetail tears the thread down. Its late responses are dropped and its
// unsettled mutations are cancelled.
func (m Model) closeDetail() Model {
	if m.detail != nil {
		m.detail.thread.Close()
	}
	m.detail = nil
	m.clampCursor()
	return m
}

// detailMessage returns the whisper of the open thread from the cache.
func (m Model) detailMessage() (domain.Message, bool) {
	if m.detail == nil {
		return domain.Message{}, false
	}
	return m.feed.Get(m.detail.messageID)
}
