package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/script"
	"github.com/zjrosen/treenode/internal/ui/stepper"
)

var stepCmd = &cobra.Command{
	Use:   "step <script>",
	Short: "Step through a script interactively",
	Long: `Open an interactive view of a script. Each key press applies the next
step, redraws the forest and shows the notifications it caused as they are
delivered.

Keys:
  n, space   apply the next step
  a          run to the end
  r          reset to the initial forest
  i, g       toggle node ids and ASCII branches (saved to the config file)
  q          quit`,
	Args: cobra.ExactArgs(1),
	RunE: runStep,
}

func init() {
	rootCmd.AddCommand(stepCmd)
}

func runStep(cmd *cobra.Command, args []string) error {
	provider, shutdown, err := newTracing()
	if err != nil {
		return err
	}
	defer shutdown()

	ctx := cmd.Context()
	s, err := script.NewLoader(cfg.Cache.TTL).Load(ctx, args[0])
	if err != nil {
		return err
	}

	var opts []script.Option
	if provider.Enabled() {
		opts = append(opts, script.WithTracer(provider.Tracer()))
	}
	model, err := stepper.New(ctx, stepper.Config{
		Script:        s,
		Render:        renderOptions(0),
		ConfigPath:    configFilePath(),
		RunnerOptions: opts,
	})
	if err != nil {
		return err
	}

	log.Info(log.CatUI, "stepper starting", "script", s.Path, "steps", len(s.Steps))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
