package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the board key bindings.
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Grab      key.Binding
	Cancel    key.Binding
	MoveTo    key.Binding
	Confirm   key.Binding
	Toggle    key.Binding
	SelectAll key.Binding
	Clear     key.Binding
	BulkMove  key.Binding
	NextPhase key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev stage"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next stage"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Grab: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "pick up / drop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		MoveTo: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move to…"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear selection"),
		),
		BulkMove: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "move selected here"),
		),
		NextPhase: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next phase"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
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
	return []key.Binding{k.Grab, k.MoveTo, k.Toggle, k.NextPhase, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Grab, k.Cancel, k.MoveTo, k.Confirm},
		{k.Toggle, k.SelectAll, k.Clear, k.BulkMove},
		{k.NextPhase, k.Reload, k.Help, k.Quit},
	}
}
