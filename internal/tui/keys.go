package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the job monitor.
type KeyMap struct {
	Clear key.Binding
	Reset key.Binding
	Quit  key.Binding
}

// DefaultKeyMap mirrors the tray menu actions.
var DefaultKeyMap = KeyMap{
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear history"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset icon"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Clear, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
