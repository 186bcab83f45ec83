package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Edit     key.Binding
	Clear    key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Today    key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Edit:     key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "edit cell")),
	Clear:    key.NewBinding(key.WithKeys("x", "0"), key.WithHelp("x", "clear cell")),
	PrevWeek: key.NewBinding(key.WithKeys("[", "p"), key.WithHelp("[", "previous week")),
	NextWeek: key.NewBinding(key.WithKeys("]", "n"), key.WithHelp("]", "next week")),
	Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "current week")),
	Refresh:  key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
