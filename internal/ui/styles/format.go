package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateString truncates s to fit within maxWidth cells, adding an
// ellipsis if needed. ANSI sequences in s are preserved.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// PadRight pads plain text with spaces to width cells. Wide runes count
// as two cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
