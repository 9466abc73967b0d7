// Package config provides configuration types and defaults for treenode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/treenode/internal/log"
)

// Config holds all configuration options for treenode.
type Config struct {
	Debug   bool          `mapstructure:"debug"`
	LogFile string        `mapstructure:"log_file"`
	Render  RenderConfig  `mapstructure:"render"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// RenderConfig controls how forests and events are printed.
type RenderConfig struct {
	Glyphs  string `mapstructure:"glyphs"`   // "unicode" (default) or "ascii"
	ShowIDs bool   `mapstructure:"show_ids"` // Append node handles to names
	Color   bool   `mapstructure:"color"`    // Style event kinds with lipgloss
}

// WatchConfig holds file watching options for `replay --watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// CacheConfig holds parsed-script cache options.
type CacheConfig struct {
	// TTL bounds how long a parsed script is reused without re-reading it.
	// Default: 5m
	TTL time.Duration `mapstructure:"ttl"`
}

// TracingConfig holds distributed tracing configuration for script runs.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/treenode/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`

	ServiceName string `mapstructure:"service_name"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/treenode/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treenode", "traces", "traces.jsonl")
}

// Validate checks the whole configuration, returning the first problem found.
func (c Config) Validate() error {
	if err := ValidateRender(c.Render); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateRender checks render configuration for errors.
func ValidateRender(r RenderConfig) error {
	switch r.Glyphs {
	case "", "unicode", "ascii":
		return nil
	default:
		return fmt.Errorf("render.glyphs must be \"unicode\" or \"ascii\", got %q", r.Glyphs)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Render: RenderConfig{
			Glyphs: "unicode",
			Color:  true,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "treenode",
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# treenode configuration

# Verbose logging to log_file
debug: false
# log_file: debug.log

# How forests and event transcripts are printed
render:
  glyphs: unicode   # unicode (default) or ascii
  show_ids: false   # Append node handles, e.g. "X#4"
  color: true       # Color event kinds

# replay --watch settings
watch:
  debounce: 200ms   # Wait this long after the last write before re-running

# Parsed scripts are reused until the file changes or the ttl expires
cache:
  ttl: 5m

# Distributed tracing: one span per script step
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/treenode/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#   service_name: treenode
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
