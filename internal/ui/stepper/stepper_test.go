package stepper

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/treenode/internal/eventlog"
	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/pubsub"
	"github.com/zjrosen/treenode/internal/render"
	"github.com/zjrosen/treenode/internal/script"
)

func newModel(t *testing.T, cfg Config) Model {
	t.Helper()
	if cfg.Script == nil {
		s, err := script.Load("../../script/testdata/move.yaml")
		require.NoError(t, err)
		cfg.Script = s
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m, err := New(ctx, cfg)
	require.NoError(t, err)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and synchronously delivers the command's message.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(k)
	m = updated.(Model)
	if cmd != nil {
		updated, _ = m.Update(cmd())
		m = updated.(Model)
	}
	return m
}

func TestNew_RequiresScript(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestView_Initial(t *testing.T) {
	m := newModel(t, Config{})
	view := ansi.Strip(m.View())
	require.Contains(t, view, "move-dedup  step 0/5")
	require.Contains(t, view, "next: add-children [A B] to R")
	require.Contains(t, m.body, "R\nA\nB\nX\n", "nothing is linked yet")
}

func TestStep_AdvancesOneStep(t *testing.T) {
	m := newModel(t, Config{})

	m = press(t, m, runes("n"))
	require.Equal(t, 1, m.Position())
	require.Len(t, m.Steps(), 1)
	require.True(t, m.Steps()[0].OK())

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, 2, m.Position())

	require.Contains(t, ansi.Strip(m.View()), "step 2/5")
	body := ansi.Strip(m.body)
	require.Contains(t, body, "├─ A\n│  └─ X\n└─ B")
	require.Contains(t, body, "✓ 2 add-child X to A")
}

func TestStep_IgnoredWhileBusy(t *testing.T) {
	m := newModel(t, Config{})
	updated, cmd := m.Update(runes("n"))
	require.NotNil(t, cmd)
	m = updated.(Model)

	updated, second := m.Update(runes("n"))
	require.Nil(t, second, "a step is already in flight")
	m = updated.(Model)
	require.Contains(t, ansi.Strip(m.View()), "running")

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	require.Equal(t, 1, m.Position())
}

func TestRun_ToEnd(t *testing.T) {
	m := newModel(t, Config{})
	m = press(t, m, runes("a"))

	require.Equal(t, 5, m.Position())
	require.Len(t, m.Steps(), 5)
	require.Contains(t, ansi.Strip(m.body), "move-dedup: 5 steps, 0 failed")

	_, cmd := m.Update(runes("n"))
	require.Nil(t, cmd, "nothing left to step")
}

func TestReset(t *testing.T) {
	m := newModel(t, Config{})
	m = press(t, m, runes("a"))
	before := m.Runner()

	m = press(t, m, runes("r"))
	require.Equal(t, 0, m.Position())
	require.Empty(t, m.Steps())
	require.NotSame(t, before, m.Runner())
	require.Contains(t, ansi.Strip(m.View()), "step 0/5")
}

func TestFeed_ReceivesPublishedEvents(t *testing.T) {
	m := newModel(t, Config{})
	listen := m.Init()
	require.NotNil(t, listen)

	m = press(t, m, runes("n"))

	msg := listen()
	ev, ok := msg.(pubsub.Event[eventlog.Entry])
	require.True(t, ok, "got %T", msg)

	updated, next := m.Update(ev)
	m = updated.(Model)
	require.NotNil(t, next, "keeps listening")
	require.Len(t, m.Feed(), 1)
	require.Contains(t, ansi.Strip(m.body), "live")
}

func TestFeed_IsBounded(t *testing.T) {
	m := newModel(t, Config{})
	for range feedSize + 3 {
		updated, _ := m.Update(pubsub.Event[eventlog.Entry]{
			Type:    pubsub.ParentChangedEvent,
			Payload: eventlog.Entry{Kind: pubsub.ParentChangedEvent, Observer: "X", Node: "X"},
		})
		m = updated.(Model)
	}
	require.Len(t, m.Feed(), feedSize)
}

func TestToggle_SavesRenderOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := newModel(t, Config{ConfigPath: path, Render: render.Options{Glyphs: "unicode"}})
	m = press(t, m, runes("a"))

	m = press(t, m, runes("i"))
	require.True(t, m.RenderOptions().ShowIDs)
	require.Contains(t, ansi.Strip(m.body), "R#1")
	require.Contains(t, ansi.Strip(m.View()), "saved to "+path)

	m = press(t, m, runes("g"))
	require.Equal(t, "ascii", m.RenderOptions().Glyphs)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "show_ids: true")
	require.Contains(t, string(data), "glyphs: ascii")
}

func TestToggle_WithoutConfigPath(t *testing.T) {
	m := newModel(t, Config{})
	updated, cmd := m.Update(runes("g"))
	require.Nil(t, cmd)
	require.Equal(t, "ascii", updated.(Model).RenderOptions().Glyphs)
}

func TestQuit(t *testing.T) {
	m := newModel(t, Config{})
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestHelp_Toggle(t *testing.T) {
	m := newModel(t, Config{})
	short := ansi.Strip(m.View())
	require.NotContains(t, short, "toggle glyphs")

	updated, _ := m.Update(runes("?"))
	full := ansi.Strip(updated.(Model).View())
	require.Contains(t, full, "toggle glyphs")
}

func TestFooter_WrapsToWidth(t *testing.T) {
	m := newModel(t, Config{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	m = updated.(Model)
	m.status = "saved to a config file far away"

	for _, line := range strings.Split(ansi.Strip(m.footer()), "\n")[:2] {
		require.LessOrEqual(t, len(line), 20, line)
	}
}

func TestLogs_ShowsLoggedLines(t *testing.T) {
	log.InitWriter(io.Discard, log.LevelDebug)
	t.Cleanup(log.Disable)

	m := newModel(t, Config{})
	require.NotNil(t, m.logIn)

	log.Info(log.CatUI, "stepper log pane")
	for range 100 {
		updated, next := m.Update(m.logIn.Listen()())
		m = updated.(Model)
		require.NotNil(t, next, "keeps listening")
		if n := len(m.Logs()); n > 0 && strings.Contains(m.Logs()[n-1], "stepper log pane") {
			break
		}
	}
	require.Contains(t, m.Logs()[len(m.Logs())-1], "stepper log pane")
	require.LessOrEqual(t, len(m.Logs()), logSize)
	require.Contains(t, ansi.Strip(m.body), "log\n")
}

func TestLogs_DisabledLoggerHasNoPane(t *testing.T) {
	log.Disable()
	m := newModel(t, Config{})
	require.Nil(t, m.logIn)
	require.Empty(t, m.Logs())
}

func TestProgram_StepThenQuit(t *testing.T) {
	s, err := script.Load("../../script/testdata/move.yaml")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m, err := New(ctx, Config{Script: s})
	require.NoError(t, err)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("step 0/5"))
	}, teatest.WithDuration(3*time.Second))

	for _, want := range []string{"step 1/5", "step 2/5"} {
		tm.Type("n")
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte(want))
		}, teatest.WithDuration(3*time.Second))
	}

	tm.Type("q")
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.True(t, ok)
	require.Equal(t, 2, final.Position())
	require.Len(t, final.Steps(), 2)
}
