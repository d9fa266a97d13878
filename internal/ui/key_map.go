package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI. Plain letters are reserved for
// the search input in the list view.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	nextRegion key.Binding
	prevRegion key.Binding
	open       key.Binding
	warm       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "ctrl+k"), key.WithHelp("↑", "up")),
		down:       key.NewBinding(key.WithKeys("down", "ctrl+j"), key.WithHelp("↓", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		nextRegion: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "region")),
		prevRegion: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev region")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open website")),
		warm:       key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "warm previews")),
		quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.nextRegion, k.prevRegion, k.back},
		{k.open, k.warm, k.quit},
	}
}
