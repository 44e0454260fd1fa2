package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Toggle  key.Binding
	Roll    key.Binding
	Bank    key.Binding
	Pass    key.Binding
	Retry   key.Binding
	NewGame key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous die"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next die"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "keep/release"),
		),
		Roll: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "roll"),
		),
		Bank: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bank"),
		),
		Pass: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pass turn"),
		),
		Retry: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "retry agent"),
		),
		NewGame: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new game"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Roll, k.Bank, k.NewGame, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Toggle},
		{k.Roll, k.Bank, k.Pass},
		{k.Retry, k.NewGame, k.Help, k.Quit},
	}
}
