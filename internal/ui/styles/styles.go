// Package styles contains the Lip Gloss colors shared by the renderer and
// the interactive stepper.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Node labels
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"} // Node ids, observer names
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#696969"} // Branch glyphs, hints, footers

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Passing steps, added children
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"} // Parent changes
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Failures, removed children

	// Diff colors
	DiffAddedColor   = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}
	DiffRemovedColor = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#FFFFFF"}
)

var (
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
	TitleStyle              = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	MutedStyle              = lipgloss.NewStyle().Foreground(TextMutedColor)
)
