package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/treenode/internal/config"
	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/render"
	"github.com/zjrosen/treenode/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".treenode/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	debugFlag  bool
	noColor    bool
	cfg        config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "treenode",
	Short: "Replay and inspect edits to parent/child hierarchies",
	Long: `treenode runs YAML scripts of structural edits against a forest of
nodes and shows the notifications every watched node receives.

Scripts declare nodes, validators and a list of steps, each optionally
carrying the error and notifications it is expected to produce.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.treenode/config.yaml, then ~/.config/treenode/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treenode", "config.yaml")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("render.glyphs", defaults.Render.Glyphs)
	viper.SetDefault("render.show_ids", defaults.Render.ShowIDs)
	viper.SetDefault("render.color", defaults.Render.Color)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	viper.SetEnvPrefix("TREENODE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .treenode/config.yaml (current directory)
		// 2. ~/.config/treenode/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if p := userConfigPath(); p != "" {
			viper.AddConfigPath(filepath.Dir(p))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the default user config
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if p := userConfigPath(); p != "" {
				if writeErr := config.WriteDefaultConfig(p); writeErr == nil {
					viper.SetConfigFile(p)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setup validates the loaded config and starts logging.
func setup(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if noColor || termenv.EnvNoColor() {
		cfg.Render.Color = false
	}

	if debugFlag || cfg.Debug {
		logPath := cfg.LogFile
		if logPath == "" {
			logPath = "debug.log"
		}
		initLog := log.Init
		if cmd == stepCmd {
			// the stepper owns the terminal
			initLog = func(path string) (func(), error) { return log.InitWithTeaLog(path, "treenode") }
		}
		cleanup, err := initLog(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "treenode starting", "version", version, "config", viper.ConfigFileUsed())
	}
	return nil
}

// configFilePath is where display toggles are saved.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

func tracingConfig(c config.TracingConfig) tracing.Config {
	return tracing.Config{
		Enabled:      c.Enabled,
		Exporter:     c.Exporter,
		FilePath:     c.FilePath,
		OTLPEndpoint: c.OTLPEndpoint,
		SampleRate:   c.SampleRate,
		ServiceName:  c.ServiceName,
	}
}

// newTracing starts the configured trace provider. The returned shutdown
// flushes pending spans.
func newTracing() (*tracing.Provider, func(), error) {
	provider, err := tracing.NewProvider(tracingConfig(cfg.Tracing))
	if err != nil {
		return nil, nil, fmt.Errorf("starting tracing: %w", err)
	}
	return provider, func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
		}
	}, nil
}

func renderOptions(width int) render.Options {
	opts := render.OptionsFrom(cfg.Render)
	opts.Width = width
	return opts
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
