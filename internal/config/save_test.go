package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRender_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveRender(configPath, RenderConfig{Glyphs: "ascii", ShowIDs: true})
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "render:")
	assert.Contains(t, string(data), "glyphs: ascii")
	assert.Contains(t, string(data), "show_ids: true")
	assert.Contains(t, string(data), "color: false")
}

func TestSaveRender_PreservesOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	initial := `# keep me
debug: true
render:
  glyphs: unicode
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o644))

	require.NoError(t, SaveRender(configPath, RenderConfig{Glyphs: "ascii", Color: true}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# keep me")
	assert.Contains(t, content, "debug: true")
	assert.Contains(t, content, "debounce: 1s")
	assert.Contains(t, content, "glyphs: ascii")
	assert.NotContains(t, content, "glyphs: unicode")
}

func TestSaveRender_Roundtrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	want := RenderConfig{Glyphs: "ascii", ShowIDs: true, Color: false}
	require.NoError(t, SaveRender(configPath, want))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, want, cfg.Render)
	require.Equal(t, Defaults().Cache.TTL, cfg.Cache.TTL, "other sections survive the rewrite")
}

func TestSaveRender_RejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.Error(t, SaveRender(configPath, RenderConfig{Glyphs: "braille"}))

	_, err := os.Stat(configPath)
	require.True(t, os.IsNotExist(err), "nothing is written for an invalid section")
}

func TestSaveRender_NonMappingDocument(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- just\n- a list\n"), 0o644))

	err := SaveRender(configPath, RenderConfig{})
	require.ErrorContains(t, err, "not a mapping")
}
