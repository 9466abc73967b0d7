package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestStepper_KeyAssignments(t *testing.T) {
	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Step uses n and space", Stepper.Step, []string{"n", " "}},
		{"Run uses a", Stepper.Run, []string{"a"}},
		{"Reset uses r", Stepper.Reset, []string{"r"}},
		{"ToggleIDs uses i", Stepper.ToggleIDs, []string{"i"}},
		{"ToggleGlyphs uses g", Stepper.ToggleGlyphs, []string{"g"}},
		{"Quit uses q and ctrl+c", Stepper.Quit, []string{"q", "ctrl+c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
			require.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestStepper_NoDuplicateKeys(t *testing.T) {
	seen := map[string]string{}
	for _, group := range Stepper.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				prev, dup := seen[k]
				require.False(t, dup, "key %q bound to both %q and %q", k, prev, b.Help().Desc)
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestStepper_ShortHelpIsSubsetOfFullHelp(t *testing.T) {
	full := map[string]bool{}
	for _, group := range Stepper.FullHelp() {
		for _, b := range group {
			full[b.Help().Key] = true
		}
	}
	for _, b := range Stepper.ShortHelp() {
		require.True(t, full[b.Help().Key], b.Help().Key)
	}
}
