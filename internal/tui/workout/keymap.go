package workout

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for a workout session.
type KeyMap struct {
	Start      key.Binding
	Pause      key.Binding
	Skip       key.Binding
	SkipRest   key.Binding
	Next       key.Binding
	Done       key.Binding
	AnotherSet key.Binding
	Failure    key.Binding
	Weight     key.Binding
	Reset      key.Binding
	Listen     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "start exercise"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "pause/resume"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip phase"),
		),
		SkipRest: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "skip rest"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next exercise"),
		),
		Done: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "done"),
		),
		AnotherSet: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "another set"),
		),
		Failure: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle failure"),
		),
		Weight: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "log weight"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "restart phase"),
		),
		Listen: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "voice command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown under the countdown.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Listen, k.Pause, k.Skip, k.Done, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Next, k.AnotherSet},
		{k.Pause, k.Skip, k.SkipRest, k.Reset},
		{k.Done, k.Failure, k.Weight},
		{k.Listen, k.Help, k.Quit},
	}
}
