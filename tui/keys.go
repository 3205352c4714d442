package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up       key.Binding
	down     key.Binding
	left     key.Binding
	right    key.Binding
	enter    key.Binding
	esc      key.Binding
	tab      key.Binding
	backtab  key.Binding
	save     key.Binding
	quit     key.Binding
	newNote  key.Binding
	edit     key.Binding
	delete   key.Binding
	search   key.Binding
	sync     key.Binding
	local    key.Binding
	incoming key.Binding
	yes      key.Binding
	no       key.Binding
}

var keys = keyMap{
	up:       key.NewBinding(key.WithKeys("up", "k")),
	down:     key.NewBinding(key.WithKeys("down", "j")),
	left:     key.NewBinding(key.WithKeys("left", "h")),
	right:    key.NewBinding(key.WithKeys("right", "l")),
	enter:    key.NewBinding(key.WithKeys("enter")),
	esc:      key.NewBinding(key.WithKeys("esc")),
	tab:      key.NewBinding(key.WithKeys("tab")),
	backtab:  key.NewBinding(key.WithKeys("shift+tab")),
	save:     key.NewBinding(key.WithKeys("ctrl+s")),
	quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	newNote:  key.NewBinding(key.WithKeys("n")),
	edit:     key.NewBinding(key.WithKeys("e")),
	delete:   key.NewBinding(key.WithKeys("d")),
	search:   key.NewBinding(key.WithKeys("/")),
	sync:     key.NewBinding(key.WithKeys("s")),
	local:    key.NewBinding(key.WithKeys("l")),
	incoming: key.NewBinding(key.WithKeys("i")),
	yes:      key.NewBinding(key.WithKeys("y")),
	no:       key.NewBinding(key.WithKeys("n")),
}
