package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Forward    key.Binding
	Backward   key.Binding
	Left       key.Binding
	Right      key.Binding
	Faster     key.Binding
	Slower     key.Binding
	Scan       key.Binding
	Connect    key.Binding
	Disconnect key.Binding
	Radar      key.Binding
	Poll       key.Binding
	Accept     key.Binding
	Decline    key.Binding
	Escape     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "prev peripheral"),
		),
		Down: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "next peripheral"),
		),
		Forward: key.NewBinding(
			key.WithKeys("w", "up"),
			key.WithHelp("w/↑", "forward"),
		),
		Backward: key.NewBinding(
			key.WithKeys("s", "down"),
			key.WithHelp("s/↓", "backward"),
		),
		Left: key.NewBinding(
			key.WithKeys("a", "left"),
			key.WithHelp("a/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("d", "right"),
			key.WithHelp("d/→", "right"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "speed up"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slow down"),
		),
		Scan: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "scan"),
		),
		Connect: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "disconnect"),
		),
		Radar: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "radar sweep"),
		),
		Poll: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "read sample"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "accept"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close radar"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scan, k.Connect, k.Radar, k.Forward, k.Faster, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Scan, k.Connect, k.Disconnect},
		{k.Forward, k.Backward, k.Left, k.Right},
		{k.Faster, k.Slower, k.Radar, k.Poll},
		{k.Escape, k.Help, k.Quit},
	}
}
