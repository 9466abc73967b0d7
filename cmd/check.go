package cmd

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/zjrosen/treenode/internal/render"
	"github.com/zjrosen/treenode/internal/script"
)

// ErrCheckFailed is returned when any checked script misses an expectation.
var ErrCheckFailed = errors.New("expectations not met")

var checkQuiet bool

var checkCmd = &cobra.Command{
	Use:   "check <script>...",
	Short: "Run scripts and report steps that miss their expectations",
	Long: `Run every script and report the steps whose errors, results or
notifications differ from what the script expects, with a line diff of the
notifications. Exits non-zero if any script fails or cannot be loaded.

Examples:
  treenode check scripts/*.yaml
  treenode check --quiet move.yaml validation.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "only print failing steps and the summary")
}

func runCheck(cmd *cobra.Command, args []string) error {
	provider, shutdown, err := newTracing()
	if err != nil {
		return err
	}
	defer shutdown()

	var opts []script.Option
	if provider.Enabled() {
		opts = append(opts, script.WithTracer(provider.Tracer()))
	}

	ctx := cmd.Context()
	loader := script.NewLoader(cfg.Cache.TTL)
	renderer := render.New(renderOptions(0))
	out := cmd.OutOrStdout()

	var merr *multierror.Error
	failed := 0
	for _, path := range args {
		s, err := loader.Load(ctx, path)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		r, err := script.NewRunner(s, opts...)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", path, err))
			continue
		}
		rep, err := r.Run(ctx)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", path, err))
			continue
		}
		printCheck(cmd, renderer, rep)
		if !rep.OK() {
			failed++
		}
	}

	if failed > 0 {
		merr = multierror.Append(merr, fmt.Errorf("%w in %d of %d scripts", ErrCheckFailed, failed, len(args)))
	}
	if err := merr.ErrorOrNil(); err != nil {
		fmt.Fprintln(out)
		return err
	}
	return nil
}

func printCheck(cmd *cobra.Command, renderer *render.Renderer, rep *script.Report) {
	out := cmd.OutOrStdout()
	if checkQuiet {
		for _, s := range rep.Failures() {
			fmt.Fprint(out, renderer.Step(s))
		}
	} else {
		for _, s := range rep.Steps {
			fmt.Fprint(out, renderer.Step(s))
		}
	}
	fmt.Fprintln(out, renderer.Summary(rep))
}
