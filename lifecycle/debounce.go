package lifecycle

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDebounce is the quiet window applied to search input.
const DefaultDebounce = 300 * time.Millisecond

// DebouncedMsg is delivered when a debounce window elapses.
type DebouncedMsg struct {
	Kind Kind
	Seq  uint64
}

// Debounce restarts the quiet window of kind. Only the message of the most
// recent call is Due; earlier ticks arrive but are ignored.
func (c *Controller) Debounce(kind Kind, window time.Duration) tea.Cmd {
	if window <= 0 {
		window = DefaultDebounce
	}
	c.mu.Lock()
	c.debounce[kind]++
	seq := c.debounce[kind]
	c.mu.Unlock()

	return tea.Tick(window, func(time.Time) tea.Msg {
		return DebouncedMsg{Kind: kind, Seq: seq}
	})
}

// Due reports whether msg closes the latest debounce window of its kind.
func (c *Controller) Due(msg DebouncedMsg) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.debounce[msg.Kind] == msg.Seq
}
