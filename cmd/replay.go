package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/render"
	"github.com/zjrosen/treenode/internal/script"
	"github.com/zjrosen/treenode/internal/watcher"
)

var (
	replayWatch bool
	replayWidth int
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Run a script and print every step's notifications",
	Long: `Run a script from start to end, printing each step with the
notifications every watched node received, followed by the final forest.

Examples:
  # Print the transcript of a script
  treenode replay testdata/move.yaml

  # Rerun whenever the script is saved
  treenode replay testdata/move.yaml --watch

  # Show node handles and plain ASCII branches
  treenode replay testdata/move.yaml -c ascii.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "rerun the script whenever it changes")
	replayCmd.Flags().IntVar(&replayWidth, "width", 0, "truncate output lines to this many cells (0 = no limit)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	provider, shutdown, err := newTracing()
	if err != nil {
		return err
	}
	defer shutdown()

	rp := &replayer{
		loader:   script.NewLoader(cfg.Cache.TTL),
		renderer: render.New(renderOptions(replayWidth)),
		out:      cmd.OutOrStdout(),
	}
	if provider.Enabled() {
		rp.opts = append(rp.opts, script.WithTracer(provider.Tracer()))
	}

	ctx := cmd.Context()
	path := args[0]
	if !replayWatch {
		_, err := rp.replay(ctx, path)
		return err
	}

	if _, err := rp.replay(ctx, path); err != nil {
		// keep watching; the next save may fix the script
		fmt.Fprintf(rp.out, "error: %v\n", err)
	}

	wcfg := watcher.DefaultConfig(path)
	if cfg.Watch.Debounce > 0 {
		wcfg.DebounceDur = cfg.Watch.Debounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	defer func() { _ = w.Stop() }()
	log.Info(log.CatWatch, "watching script", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case files, ok := <-changes:
			if !ok {
				return nil
			}
			log.Debug(log.CatWatch, "script changed", "files", files)
			if err := rp.loader.Invalidate(ctx, path); err != nil {
				log.Warn(log.CatWatch, "dropping cached script failed", "error", err)
			}
			fmt.Fprintln(rp.out)
			if _, err := rp.replay(ctx, path); err != nil {
				fmt.Fprintf(rp.out, "error: %v\n", err)
			}
		}
	}
}

// replayer loads, runs and prints one script.
type replayer struct {
	loader   *script.Loader
	renderer *render.Renderer
	opts     []script.Option
	out      io.Writer
}

func (rp *replayer) replay(ctx context.Context, path string) (*script.Report, error) {
	s, err := rp.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := script.NewRunner(s, rp.opts...)
	if err != nil {
		return nil, err
	}
	rep, err := r.Run(ctx)
	if err != nil {
		return rep, err
	}
	fmt.Fprint(rp.out, rp.renderer.Report(rep))
	fmt.Fprintln(rp.out)
	fmt.Fprint(rp.out, rp.renderer.Forest(r.Forest()))
	return rep, nil
}
