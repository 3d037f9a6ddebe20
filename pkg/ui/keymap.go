package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Deposit      key.Binding
	Withdraw     key.Binding
	RunUnsafe    key.Binding
	RunProtected key.Binding
	Reset        key.Binding
	Help         key.Binding
	Quit         key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
}

var keys = keyMap{
	Deposit: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "deposit once"),
	),
	Withdraw: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "withdraw once"),
	),
	RunUnsafe: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "stress run (unsafe)"),
	),
	RunProtected: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "stress run (protected)"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset account"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "scroll down"),
	),
}
