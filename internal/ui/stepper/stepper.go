// Package stepper implements the interactive step-through view of a script:
// the forest after each edit, the notifications it caused, and a live feed
// of events as the broker delivers them.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/treenode/internal/config"
	"github.com/zjrosen/treenode/internal/eventlog"
	"github.com/zjrosen/treenode/internal/keys"
	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/pubsub"
	"github.com/zjrosen/treenode/internal/render"
	"github.com/zjrosen/treenode/internal/script"
	"github.com/zjrosen/treenode/internal/ui/styles"
)

// feedSize bounds the live event feed.
const feedSize = 8

// logSize bounds the log pane.
const logSize = 5

// stepDoneMsg carries the outcome of one step.
type stepDoneMsg struct {
	report script.StepReport
	err    error
}

// runDoneMsg carries the outcome of running to the end.
type runDoneMsg struct {
	reports []script.StepReport
	err     error
}

// configSavedMsg reports the outcome of persisting render options.
type configSavedMsg struct {
	err error
}

// Config configures a stepper Model.
type Config struct {
	Script *script.Script
	Render render.Options

	// ConfigPath receives display toggles. Empty disables saving.
	ConfigPath string

	// RunnerOptions are passed to every runner the model builds.
	RunnerOptions []script.Option
}

// Model is the Bubble Tea model of the stepper.
type Model struct {
	ctx    context.Context
	cfg    Config
	broker *pubsub.Broker[eventlog.Entry]
	feedIn *pubsub.ContinuousListener[eventlog.Entry]
	logIn  *log.LogListener // nil while logging is disabled

	// runner is only touched from the update loop while busy is false.
	// position and steps mirror its progress for rendering.
	runner     *script.Runner
	renderer   *render.Renderer
	position   int
	steps      []script.StepReport
	forestView string
	body       string
	feed       []eventlog.Entry
	logs       []string
	busy       bool
	status     string
	err        error

	keys     keys.StepperKeyMap
	help     help.Model
	viewport viewport.Model
	width    int
	height   int
}

// New builds a stepper over cfg.Script. Events published by the runner are
// delivered to the model through a broker subscription bound to ctx.
func New(ctx context.Context, cfg Config) (Model, error) {
	if cfg.Script == nil {
		return Model{}, errors.New("stepper: no script")
	}
	broker := pubsub.NewBroker[eventlog.Entry]()
	m := Model{
		ctx:      ctx,
		cfg:      cfg,
		broker:   broker,
		feedIn:   pubsub.NewContinuousListener(ctx, broker),
		logIn:    log.NewListener(ctx),
		renderer: render.New(cfg.Render),
		keys:     keys.Stepper,
		help:     help.New(),
		viewport: viewport.New(80, 20),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	opts := append([]script.Option{script.WithPublisher(m.broker)}, m.cfg.RunnerOptions...)
	r, err := script.NewRunner(m.cfg.Script, opts...)
	if err != nil {
		return err
	}
	m.runner = r
	m.position = 0
	m.steps = nil
	m.feed = nil
	m.err = nil
	m.status = ""
	m.forestView = m.renderer.Forest(r.Forest())
	m.refresh()
	return nil
}

func (m Model) done() bool {
	return m.position >= len(m.cfg.Script.Steps)
}

// Init starts listening for published events and, when logging is on, for
// log lines.
func (m Model) Init() tea.Cmd {
	if m.logIn == nil {
		return m.feedIn.Listen()
	}
	return tea.Batch(m.feedIn.Listen(), m.logIn.Listen())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.chromeHeight(), 1)
		m.refresh()
		return m, nil

	case pubsub.Event[eventlog.Entry]:
		m.feed = append(m.feed, msg.Payload)
		if len(m.feed) > feedSize {
			m.feed = m.feed[len(m.feed)-feedSize:]
		}
		m.refresh()
		return m, m.feedIn.Listen()

	case log.LogEvent:
		m.logs = append(m.logs, strings.TrimRight(msg.Payload, "\n"))
		if len(m.logs) > logSize {
			m.logs = m.logs[len(m.logs)-logSize:]
		}
		m.refresh()
		if m.logIn == nil {
			return m, nil
		}
		return m, m.logIn.Listen()

	case stepDoneMsg:
		var reports []script.StepReport
		if msg.err == nil {
			reports = append(reports, msg.report)
		}
		m.finish(reports, msg.err)
		return m, nil

	case runDoneMsg:
		m.finish(msg.reports, msg.err)
		return m, nil

	case configSavedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			log.Warn(log.CatUI, "saving render options failed", "error", msg.err)
		} else {
			m.status = "saved to " + m.cfg.ConfigPath
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Step):
		if m.busy || m.done() {
			return m, nil
		}
		m.busy = true
		return m, m.stepCmd()

	case key.Matches(msg, m.keys.Run):
		if m.busy || m.done() {
			return m, nil
		}
		m.busy = true
		return m, m.runCmd()

	case key.Matches(msg, m.keys.Reset):
		if m.busy {
			return m, nil
		}
		if err := m.reset(); err != nil {
			m.err = err
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleIDs):
		m.cfg.Render.ShowIDs = !m.cfg.Render.ShowIDs
		return m.applyRender()

	case key.Matches(msg, m.keys.ToggleGlyphs):
		if m.cfg.Render.Glyphs == "ascii" {
			m.cfg.Render.Glyphs = "unicode"
		} else {
			m.cfg.Render.Glyphs = "ascii"
		}
		return m.applyRender()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.viewport.Height = max(m.height-m.chromeHeight(), 1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.ScrollDown(1)
		return m, nil
	}
	return m, nil
}

// finish records reports produced off the update loop and hands the runner
// back to it.
func (m *Model) finish(reports []script.StepReport, err error) {
	m.busy = false
	if err != nil && !errors.Is(err, script.ErrDone) {
		m.err = err
	}
	m.steps = append(m.steps, reports...)
	m.position = m.runner.Position()
	m.forestView = m.renderer.Forest(m.runner.Forest())
	m.refresh()
	m.viewport.GotoBottom()
}

func (m Model) applyRender() (tea.Model, tea.Cmd) {
	m.renderer = render.New(m.cfg.Render)
	if !m.busy {
		m.forestView = m.renderer.Forest(m.runner.Forest())
	}
	m.refresh()
	if m.cfg.ConfigPath == "" {
		return m, nil
	}
	path := m.cfg.ConfigPath
	rc := config.RenderConfig{
		Glyphs:  m.cfg.Render.Glyphs,
		ShowIDs: m.cfg.Render.ShowIDs,
		Color:   m.cfg.Render.Color,
	}
	return m, func() tea.Msg {
		return configSavedMsg{err: config.SaveRender(path, rc)}
	}
}

// stepCmd runs the next step off the update loop. Only one step command is
// in flight at a time, guarded by busy.
func (m Model) stepCmd() tea.Cmd {
	r, ctx := m.runner, m.ctx
	return func() tea.Msg {
		rep, err := r.Step(ctx)
		return stepDoneMsg{report: rep, err: err}
	}
}

// runCmd steps until the script is exhausted.
func (m Model) runCmd() tea.Cmd {
	r, ctx := m.runner, m.ctx
	return func() tea.Msg {
		var msg runDoneMsg
		for !r.Done() {
			rep, err := r.Step(ctx)
			if err != nil {
				msg.err = err
				break
			}
			msg.reports = append(msg.reports, rep)
		}
		return msg
	}
}

func (m Model) chromeHeight() int {
	return lipgloss.Height(m.header()) + lipgloss.Height(m.footer())
}

// refresh re-renders the scrollable body.
func (m *Model) refresh() {
	var sb strings.Builder
	sb.WriteString(m.forestView)

	if n := len(m.steps); n > 0 {
		sb.WriteString("\n")
		sb.WriteString(m.renderer.Step(m.steps[n-1]))
	}
	if len(m.feed) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styles.MutedStyle.Render("live"))
		sb.WriteString("\n")
		for _, e := range m.feed {
			sb.WriteString("  ")
			sb.WriteString(styles.MutedStyle.Render(e.Observer + " "))
			sb.WriteString(m.renderer.Entry(e))
			sb.WriteString("\n")
		}
	}
	if len(m.logs) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styles.MutedStyle.Render("log"))
		sb.WriteString("\n")
		for _, line := range m.logs {
			sb.WriteString(styles.MutedStyle.Render("  " + line))
			sb.WriteString("\n")
		}
	}
	if m.done() {
		sb.WriteString("\n")
		sb.WriteString(m.renderer.Summary(&script.Report{
			Script: m.cfg.Script.Name,
			RunID:  m.runID(),
			Steps:  m.steps,
		}))
		sb.WriteString("\n")
	}
	m.body = sb.String()
	m.viewport.SetContent(m.body)
}

func (m Model) header() string {
	s := m.cfg.Script
	name := s.Name
	if name == "" {
		name = s.Path
	}
	progress := fmt.Sprintf("step %d/%d", m.position, len(s.Steps))
	if !m.done() {
		progress += styles.MutedStyle.Render("  next: " + s.Steps[m.position].String())
	}
	if m.busy {
		progress += styles.MutedStyle.Render("  running")
	}
	return styles.TitleStyle.Render(name) + "  " + progress
}

func (m Model) footer() string {
	var lines []string
	if m.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Render(m.wrap(m.err.Error())))
	}
	if m.status != "" {
		lines = append(lines, styles.MutedStyle.Render(m.wrap(m.status)))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

// wrap breaks s at word boundaries to the window width.
func (m Model) wrap(s string) string {
	if m.width <= 0 {
		return s
	}
	return wordwrap.String(s, m.width)
}

// View renders the model.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.footer())
}

func (m Model) runID() string {
	return m.runner.RunID()
}

// Runner exposes the current runner. It must not be used while a step is
// in flight.
func (m Model) Runner() *script.Runner {
	return m.runner
}

// Position returns the number of steps taken since the last reset.
func (m Model) Position() int {
	return m.position
}

// Steps returns the reports of the steps taken since the last reset.
func (m Model) Steps() []script.StepReport {
	return m.steps
}

// Feed returns the most recent live events.
func (m Model) Feed() []eventlog.Entry {
	return m.feed
}

// Logs returns the most recent log lines.
func (m Model) Logs() []string {
	return m.logs
}

// RenderOptions returns the current display options.
func (m Model) RenderOptions() render.Options {
	return m.cfg.Render
}
