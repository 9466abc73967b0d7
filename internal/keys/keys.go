// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// StepperKeyMap defines the keybindings for the interactive stepper.
type StepperKeyMap struct {
	// Stepping
	Step  key.Binding
	Run   key.Binding
	Reset key.Binding

	// Display
	ToggleIDs    key.Binding
	ToggleGlyphs key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// Stepper holds the stepper keybindings.
var Stepper = StepperKeyMap{
	Step: key.NewBinding(
		key.WithKeys("n", " "),
		key.WithHelp("n/space", "next step"),
	),
	Run: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "run to end"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	ToggleIDs: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "toggle ids"),
	),
	ToggleGlyphs: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "toggle glyphs"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns keybindings for the short help view.
func (k StepperKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Reset, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k StepperKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Run, k.Reset},                                // Stepping
		{k.ToggleIDs, k.ToggleGlyphs, k.ScrollUp, k.ScrollDown}, // Display
		{k.Help, k.Quit},                                        // General
	}
}
