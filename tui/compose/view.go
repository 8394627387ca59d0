package compose

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/whispernet/tui/common"
)

// View renders the compose view based on the active mode.
func (m Model) View() string {
	if m.err != nil {
		return common.ErrorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.mode {
	case editorMode:
		return m.status + "\n"

	case inlineMode:
		var b strings.Builder
		b.WriteString(common.AppTitleStyle.Render("WhisperNet"))
		b.WriteString("  " + m.target.title())
		if m.incognito && !m.target.IsComment() {
			b.WriteString("  " + common.IncognitoStyle.Render("incognito"))
		}
		b.WriteString("\n\n")
		b.WriteString(m.textarea.View())
		b.WriteString("\n\n")

		if m.status != "" {
			b.WriteString(common.StatusBarStyle.Render(m.status))
		} else {
			b.WriteString(common.StatusBarStyle.Render(
				fmt.Sprintf("  ctrl+d: send • esc: cancel • %d chars left", m.Remaining()),
			))
		}
		return b.String()
	}

	return ""
}
