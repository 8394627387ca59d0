package common

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/whispernet/domain"
)

var (
	// AppTitleStyle styles the application title. Rendered at call site with content.
	AppTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C6A0F6")).
			Padding(1, 2, 0, 1)

	// TaglineStyle styles the app's tagline.
	TaglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true).
			MarginLeft(1)

	// AuthorStyle styles author names.
	AuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DC4E4"))

	// TimestampStyle styles timestamps.
	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// ContentStyle styles whisper and comment text.
	ContentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5"))

	// SelectedStyle highlights the focused whisper.
	SelectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#C6A0F6")).
			Padding(0, 1)

	// UnselectedStyle gives the other whispers a subtle border.
	UnselectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)

	// TabActiveStyle and TabInactiveStyle render the view tabs.
	TabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C6A0F6")).
			Bold(true).
			Underline(true).
			Padding(0, 1)
	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6E738D")).
				Padding(0, 1)

	// StatusBarStyle styles the bottom status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D")).
			Padding(1, 0, 0, 0)

	// PendingStyle marks changes waiting for the server.
	PendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EED49F")).
			Italic(true)

	// UnsyncedStyle marks local items the server never confirmed.
	UnsyncedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5A97F")).
			Bold(true)

	// IncognitoStyle marks incognito mode and unhinged whispers.
	IncognitoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// ErrorStyle styles error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// WarningStyle styles advisory messages such as degraded loads.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EED49F"))

	// SuccessStyle styles success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)
)

var badgeColors = map[domain.Badge]string{
	domain.BadgeBronze:   "#CD7F32",
	domain.BadgeSilver:   "#C0C0C0",
	domain.BadgeGold:     "#EED49F",
	domain.BadgePlatinum: "#8BD5CA",
}

// BadgeStyle colors a kindness badge.
func BadgeStyle(b domain.Badge) lipgloss.Style {
	c, ok := badgeColors[b]
	if !ok {
		return TimestampStyle
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
}
