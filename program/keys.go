package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	AddNode key.Binding
	Reset   key.Binding
	End     key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddNode, k.Reset, k.End, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.AddNode, k.Reset},
		{k.End, k.Quit, k.Help},
	}
}

var keys = keyMap{
	AddNode: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add node"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r", "0"),
		key.WithHelp("r", "reset view"),
	),
	End: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "end session"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
