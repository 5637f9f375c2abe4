package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the progress view bindings.
type KeyMap struct {
	Cancel key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "q", "esc"),
			key.WithHelp("q", "stop after this batch"),
		),
	}
}

// HelpText returns the one-line key help.
func (k KeyMap) HelpText() string {
	h := k.Cancel.Help()
	return h.Key + " " + h.Desc
}
