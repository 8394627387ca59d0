package feed

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/whispernet/domain"
)

// previewLines is how many wrapped lines of a whisper a feed card shows.
const previewLines = 2

// preview flattens a whisper to a single paragraph, caps it at the whisper
// length limit and wraps it into at most previewLines lines of width.
// The last kept line ends in an ellipsis when anything was cut.
func preview(content string, width int) string {
	width = max(width, 12)
	flat := strings.Join(strings.Fields(content), " ")
	cut := false
	if r := []rune(flat); len(r) > domain.MaxMessageLength {
		flat, cut = string(r[:domain.MaxMessageLength-1]), true
	}
	lines := strings.Split(ansi.Wrap(flat, width, ""), "\n")
	if len(lines) > previewLines {
		lines, cut = lines[:previewLines], true
	}
	if cut {
		last := len(lines) - 1
		if ansi.StringWidth(lines[last]) >= width {
			lines[last] = ansi.Truncate(lines[last], width-1, "")
		}
		lines[last] += "…"
	}
	return strings.Join(lines, "\n")
}

var tagCapStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#A9A9A9")).
	Background(lipgloss.Color("#2F2F2F")).
	Padding(0, 1).
	Faint(true)

func renderCompactTags(tags []string, max int) string {
	if len(tags) == 0 {
		return ""
	}
	if max < 1 {
		max = 1
	}
	show := tags
	if len(show) > max {
		show = show[:max]
	}
	parts := make([]string, 0, len(show)+1)
	for _, t := range show {
		parts = append(parts, tagCapStyle.Render("#"+t))
	}
	if len(tags) > max {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")).Faint(true).Render(fmt.Sprintf("+%d more", len(tags)-max)))
	}
	return strings.Join(parts, " ")
}

func renderAllTags(tags []string) string {
	return renderCompactTags(tags, len(tags))
}

// animalColors tints generated pseudonyms ("GentleOtter") by their animal so
// the same creature always reads the same across cards.
var animalColors = map[string]string{
	"Panda":     "#E5E5E5",
	"Dolphin":   "#7DC4E4",
	"Butterfly": "#C6A0F6",
	"Owl":       "#F5A97F",
	"Rabbit":    "#F5BDE6",
	"Fox":       "#F9A66C",
	"Bird":      "#8BD5CA",
	"Cat":       "#EED49F",
	"Lion":      "#F9E2AF",
	"Tiger":     "#EBA0AC",
}

var fallbackColors = []string{"#89B4FA", "#94E2D5", "#F38BA8", "#B7BDF8"}

var (
	ownAuthorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6DA95"))
	anonymousAuthorStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#8087A2"))
)

// pseudonymStyle colors an author name. The signed-in user is green and
// unresolved authors are muted.
func pseudonymStyle(name string, own bool) lipgloss.Style {
	name = strings.TrimSpace(name)
	switch {
	case own:
		return ownAuthorStyle
	case name == "" || name == domain.AnonymousAuthor:
		return anonymousAuthorStyle
	}
	for animal, color := range animalColors {
		if strings.HasSuffix(name, animal) {
			return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	color := fallbackColors[h.Sum32()%uint32(len(fallbackColors))]
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}

// fitCard cuts a rendered card body to maxLines rows of at most width cells.
func fitCard(body string, width, maxLines int) string {
	if maxLines < 1 {
		return ""
	}
	lines := strings.Split(body, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	if width > 0 {
		for i, ln := range lines {
			if ansi.StringWidth(ln) > width {
				lines[i] = ansi.Cut(ln, 0, width)
			}
		}
	}
	return strings.Join(lines, "\n")
}
