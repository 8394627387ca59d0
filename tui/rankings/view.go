package rankings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/whispernet/tui/common"
)

// View renders the leaderboard table.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("Kindness Rankings"))
	b.WriteString(common.TaglineStyle.Render("<spread good vibes, climb the board>"))
	b.WriteString("\n\n")

	entries := m.Entries()
	switch {
	case m.loading && len(entries) == 0:
		b.WriteString(fmt.Sprintf(" %s Loading rankings...\n", m.spinner.View()))
	case m.err != nil && len(entries) == 0:
		b.WriteString(common.ErrorStyle.Render(" Error: "+m.err.Error()) + "\n")
	case len(entries) == 0:
		b.WriteString(common.TimestampStyle.Render(" Nobody ranked yet.") + "\n")
	default:
		nameWidth := min(max(m.width-48, 12), 28)
		header := fmt.Sprintf("   %-4s %-*s %7s %7s %7s  %s", "#", nameWidth, "whisperer", "posts", "likes", "score", "badge")
		b.WriteString(common.TimestampStyle.Render(header) + "\n")
		for i, e := range entries {
			name := e.DisplayName
			if name == "" {
				name = e.UserID
			}
			name = common.Truncate(name, nameWidth)
			pad := nameWidth - ansi.StringWidth(name)
			if pad > 0 {
				name += strings.Repeat(" ", pad)
			}
			line := fmt.Sprintf("%-4d %s %7d %7d %7d  %s", i+1, name, e.MessagesPosted, e.TotalLikes, e.Score, common.BadgeLabel(e.Badge))
			prefix := "   "
			if i == m.cursor {
				prefix = common.SuccessStyle.Render(" › ")
			}
			if m.me != "" && e.UserID == m.me {
				line += "  " + common.SuccessStyle.Render("(you)")
			}
			b.WriteString(prefix + line + "\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n" + common.WarningStyle.Render(" "+m.notice) + "\n")
	}
	b.WriteString(common.StatusBarStyle.Render("  j/k: move • r: refresh • esc/b: back"))
	return b.String()
}
