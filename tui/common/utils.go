package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/whispernet/domain"
)

// TimeAgo formats t relative to now: "just now", "5m ago", "3h ago", "2d ago".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// Truncate cuts s to width display cells, ANSI sequences included, adding "…".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// SingleLine collapses whitespace so previews stay on one row.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BadgeLabel renders a badge name, or "-" when there is none.
func BadgeLabel(b domain.Badge) string {
	if b == domain.BadgeNone {
		return "-"
	}
	return BadgeStyle(b).Render(string(b))
}

// Plural formats a count with its noun.
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
