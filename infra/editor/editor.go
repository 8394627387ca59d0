// Package editor composes whispers and comments in the user's $EDITOR.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvEditor prepares an external editor command using $VISUAL or $EDITOR
// (fallback: "vi"). It does not run the editor; callers hand the returned
// *exec.Cmd to tea.ExecProcess so Bubble Tea can release the terminal.
type EnvEditor struct{}

// NewEnvEditor creates an EnvEditor.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

const headerEnd = "-->"

func header(context string, limit int) string {
	var b strings.Builder
	b.WriteString("<!--\nWhisperNet: write below this block.\n\n")
	if context != "" {
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("- Save and exit to send (e.g. :wq in vi).\n")
	b.WriteString("- An empty file cancels.\n")
	if limit > 0 {
		fmt.Fprintf(&b, "- Limit: %d characters. #hashtags become tags.\n", limit)
	}
	b.WriteString(headerEnd + "\n\n")
	return b.String()
}

// Cmd writes draft to a temp file under an instruction header and returns the
// editor command for it. context is an optional line such as "Replying to
// @HappyFox"; limit is the character limit shown to the user.
func (e *EnvEditor) Cmd(draft, context string, limit int) (*exec.Cmd, string, error) {
	editorCmd := os.Getenv("VISUAL")
	if editorCmd == "" {
		editorCmd = os.Getenv("EDITOR")
	}
	if editorCmd == "" {
		editorCmd = "vi"
	}

	tmpFile, err := os.CreateTemp("", "whispernet-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(header(context, limit) + draft); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	parts := strings.Fields(editorCmd)
	args := append(parts[1:], tmpPath)
	return exec.Command(parts[0], args...), tmpPath, nil
}

// ReadContent reads the temp file, drops the instruction header, trims
// whitespace and removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}

	content := string(data)
	if idx := strings.Index(content, headerEnd); idx != -1 {
		content = content[idx+len(headerEnd):]
	}
	return strings.TrimSpace(content), nil
}
