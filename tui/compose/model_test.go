package compose

import (
	"errors"
	"os/exec"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/domain"
)

type fakeEditor struct {
	content string
	readErr error
	context string
	limit   int
}

func (f *fakeEditor) Cmd(draft, context string, limit int) (*exec.Cmd, string, error) {
	f.context, f.limit = context, limit
	return exec.Command("true"), "unused", nil
}

func (f *fakeEditor) ReadContent(string) (string, error) {
	return f.content, f.readErr
}

func doneOf(t *testing.T, cmd tea.Cmd) DoneMsg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	raw := cmd()
	msg, ok := raw.(DoneMsg)
	if !ok {
		t.Fatalf("expected DoneMsg, got %T", raw)
	}
	return msg
}

func TestInline_CtrlDSendsTrimmedContent(t *testing.T) {
	target := Target{MessageID: "m1", ParentID: "c7", ReplyTo: "HappyFox"}
	m := NewInlineWithContent(target, false, "  thanks!  ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	got := doneOf(t, cmd)
	if got.Content != "thanks!" || got.Target != target {
		t.Fatalf("unexpected done message: %#v", got)
	}
}

func TestInline_EscAndBlankCancel(t *testing.T) {
	m := NewInline(Target{}, false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := doneOf(t, cmd); got.Content != "" || got.Err != nil {
		t.Fatalf("esc should cancel, got %#v", got)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := doneOf(t, cmd); got.Content != "" {
		t.Fatalf("blank content should cancel, got %#v", got)
	}
}

func TestInline_LimitsFollowTarget(t *testing.T) {
	if got := NewInline(Target{}, false).Remaining(); got != domain.MaxMessageLength {
		t.Fatalf("whisper limit = %d", got)
	}
	if got := NewInline(Target{MessageID: "m1"}, false).Remaining(); got != domain.MaxCommentLength {
		t.Fatalf("comment limit = %d", got)
	}
}

func TestEditor_FinishedReadsContent(t *testing.T) {
	ed := &fakeEditor{content: "hello #kind"}
	m := NewEditor(ed, Target{}, true)
	if m.Init() == nil {
		t.Fatalf("expected exec command")
	}
	if ed.limit != domain.MaxMessageLength || ed.context == "" {
		t.Fatalf("editor not prepared with header context: %#v", ed)
	}

	_, cmd := m.Update(editorFinishedMsg{tmpPath: "unused"})
	if got := doneOf(t, cmd); got.Content != "hello #kind" {
		t.Fatalf("unexpected content %q", got.Content)
	}

	ed.readErr = errors.New("gone")
	_, cmd = m.Update(editorFinishedMsg{tmpPath: "unused"})
	if got := doneOf(t, cmd); got.Err == nil {
		t.Fatalf("expected read error to surface")
	}
}

func TestEditor_ExitErrorSurfaces(t *testing.T) {
	m := NewEditor(&fakeEditor{}, Target{}, false)
	_, cmd := m.Update(editorFinishedMsg{err: errors.New("exit status 1")})
	if got := doneOf(t, cmd); got.Err == nil {
		t.Fatalf("expected editor error")
	}
}
