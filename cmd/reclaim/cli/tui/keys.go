package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	Back       key.Binding
	Filter     key.Binding
	Mode       key.Binding
	PrevOp     key.Binding
	NextOp     key.Binding
	Diff       key.Binding
	Extract    key.Binding
	ExtractAll key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Mode:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "mode")),
		PrevOp:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev op")),
		NextOp:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next op")),
		Diff:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "diff")),
		Extract:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "extract")),
		ExtractAll: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "extract all")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
