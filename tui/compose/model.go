package compose

import (
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/domain"
)

// --- Mode ---

type mode int

const (
	editorMode mode = iota
	inlineMode
)

// Target says what is being written. An empty MessageID means a new
// whisper; otherwise a comment on MessageID, replying to ParentID when set.
type Target struct {
	MessageID string
	ParentID  string
	ReplyTo   string // author shown in the header
}

// IsComment reports whether the target is a comment or reply.
func (t Target) IsComment() bool { return t.MessageID != "" }

func (t Target) limit() int {
	if t.IsComment() {
		return domain.MaxCommentLength
	}
	return domain.MaxMessageLength
}

func (t Target) title() string {
	switch {
	case t.ParentID != "" && t.ReplyTo != "":
		return "Reply to " + t.ReplyTo
	case t.ParentID != "":
		return "Reply"
	case t.IsComment():
		return "New Comment"
	default:
		return "New Whisper"
	}
}

// --- Messages ---

// DoneMsg is sent when composing is complete (success or cancel).
type DoneMsg struct {
	Content string // Empty if cancelled
	Target  Target
	Err     error
}

// editorFinishedMsg is sent after the external editor exits.
type editorFinishedMsg struct {
	tmpPath string
	err     error
}

// Editor prepares an external editor session.
type Editor interface {
	Cmd(draft, context string, limit int) (*exec.Cmd, string, error)
	ReadContent(path string) (string, error)
}

// --- Model ---

// Model holds the state for the compose view.
type Model struct {
	mode      mode
	editor    Editor
	target    Target
	incognito bool
	status    string
	err       error
	textarea  textarea.Model // Only used in inline mode
	content   string         // Initial content
}

// NewEditor creates a compose model that opens $EDITOR via tea.ExecProcess.
func NewEditor(ed Editor, target Target, incognito bool) Model {
	return Model{
		mode:      editorMode,
		editor:    ed,
		target:    target,
		incognito: incognito,
		status:    "Opening editor...",
	}
}

// NewInline creates a compose model with an inline Bubble Tea textarea.
func NewInline(target Target, incognito bool) Model {
	return NewInlineWithContent(target, incognito, "")
}

// NewInlineWithContent starts the inline composer with a draft, for instance
// the text of an unsynced comment.
func NewInlineWithContent(target Target, incognito bool, content string) Model {
	ta := textarea.New()
	ta.Placeholder = placeholder(target, incognito)
	ta.CharLimit = target.limit()
	ta.SetValue(content)
	ta.SetWidth(72)
	ta.SetHeight(6)
	ta.Focus()

	return Model{
		mode:      inlineMode,
		target:    target,
		incognito: incognito,
		textarea:  ta,
		content:   content,
	}
}

func placeholder(t Target, incognito bool) string {
	switch {
	case t.IsComment():
		return "Say something kind..."
	case incognito:
		return "Let it out. Nobody knows it's you."
	default:
		return "Share something positive. #hashtags become tags."
	}
}

// Target returns what is being composed.
func (m Model) Target() Target { return m.target }

// Init returns the initial command for the active mode.
func (m Model) Init() tea.Cmd {
	switch m.mode {
	case editorMode:
		return m.launchEditor()
	case inlineMode:
		return textarea.Blink
	}
	return nil
}

// launchEditor prepares the editor command and uses tea.ExecProcess to
// suspend Bubble Tea's raw terminal mode while the editor runs.
func (m *Model) launchEditor() tea.Cmd {
	if m.editor == nil {
		return done(DoneMsg{Target: m.target, Err: fmt.Errorf("no editor configured")})
	}
	context := m.target.title()
	if m.incognito && !m.target.IsComment() {
		context += " (incognito: posted as unhinged)"
	}
	cmd, tmpPath, err := m.editor.Cmd(m.content, context, m.target.limit())
	if err != nil {
		return done(DoneMsg{Target: m.target, Err: fmt.Errorf("preparing editor: %w", err)})
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{tmpPath: tmpPath, err: err}
	})
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	// --- Editor mode messages ---

	case editorFinishedMsg:
		if msg.err != nil {
			return m, done(DoneMsg{Target: m.target, Err: fmt.Errorf("editor: %w", msg.err)})
		}
		content, err := m.editor.ReadContent(msg.tmpPath)
		if err != nil {
			return m, done(DoneMsg{Target: m.target, Err: err})
		}
		return m, m.finish(content)

	// --- Inline mode messages ---

	case tea.KeyMsg:
		if m.mode != inlineMode {
			break
		}

		switch msg.String() {
		case "esc":
			return m, done(DoneMsg{Target: m.target}) // Cancel.
		case "ctrl+d":
			return m, m.finish(m.textarea.Value())
		}

		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}

	if m.mode == inlineMode {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}

	return m, nil
}

// finish emits the composed content. Blank text cancels.
func (m Model) finish(content string) tea.Cmd {
	content = strings.TrimSpace(content)
	if content == "" {
		return done(DoneMsg{Target: m.target})
	}
	return done(DoneMsg{Content: content, Target: m.target})
}

// Remaining returns how many characters may still be typed inline.
func (m Model) Remaining() int {
	return m.target.limit() - utf8.RuneCountInString(m.textarea.Value())
}

// done wraps a DoneMsg into a tea.Cmd for immediate delivery.
func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
