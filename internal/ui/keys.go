package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Star      key.Binding
	Winner    key.Binding
	Filter    key.Binding
	All       key.Binding
	SortName  key.Binding
	SortDesc  key.Binding
	SortType  key.Binding
	SortAge   key.Binding
	Help      key.Binding
	Quit      key.Binding
	Accept    key.Binding
	Decline   key.Binding
	Cancel    key.Binding
	DemoteOne key.Binding
	DemoteTwo key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Star:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "star")),
	Winner:    key.NewBinding(key.WithKeys("w", "enter"), key.WithHelp("w", "winner")),
	Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	All:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
	SortName:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "sort name")),
	SortDesc:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "sort desc")),
	SortType:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sort type")),
	SortAge:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "sort age")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Accept:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "replace")),
	Decline:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "keep")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	DemoteOne: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "demote first")),
	DemoteTwo: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "demote second")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Star, k.Winner, k.Filter, k.SortName, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Star, k.Winner},
		{k.Filter, k.All},
		{k.SortName, k.SortDesc, k.SortType, k.SortAge},
		{k.Help, k.Quit},
	}
}
