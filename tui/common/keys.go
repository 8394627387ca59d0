package common

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines shared key bindings across all views.
type KeyMap struct {
	Quit        key.Binding
	ForceQuit   key.Binding
	ToggleHints key.Binding
	Refresh     key.Binding
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Enter       key.Binding
	Back        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	NewEditor   key.Binding // p: compose via $EDITOR
	NewInline   key.Binding // P: compose inline
	Reply       key.Binding // c: reply via $EDITOR
	ReplyInline key.Binding // C: reply inline
	Like        key.Binding
	Report      key.Binding
	Retry       key.Binding // resend an unsynced draft
	Search      key.Binding
	Incognito   key.Binding
	Sort        key.Binding
	Tags        key.Binding // cycle tag filters
	Rankings    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		ToggleHints: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "all keys"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		NewEditor: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "whisper ($EDITOR)"),
		),
		NewInline: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "whisper (inline)"),
		),
		Reply: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment ($EDITOR)"),
		),
		ReplyInline: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "comment (inline)"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Report: key.NewBinding(
			key.WithKeys("!"),
			key.WithHelp("!", "report"),
		),
		Retry: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "retry"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Incognito: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "incognito"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Tags: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next tag"),
		),
		Rankings: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "rankings"),
		),
	}
}
