package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	next   key.Binding
	prev   key.Binding
	search key.Binding
	add    key.Binding
	remove key.Binding
	reload key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:   key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		search: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search")),
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to mine")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.search, k.add, k.remove},
		{k.reload, k.back, k.quit},
	}
}
