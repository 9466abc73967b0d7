package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/treenode/hierarchy"
	"github.com/zjrosen/treenode/internal/pubsub"
)

func TestEntry_String(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		expected string
	}{
		{
			name:     "added",
			entry:    Entry{Kind: pubsub.ChildrenAddedEvent, Changed: "B", Children: []string{"X", "Y"}},
			expected: "children-added B [X Y]",
		},
		{
			name:     "removed",
			entry:    Entry{Kind: pubsub.ChildrenRemovedEvent, Changed: "A", Children: []string{"X"}},
			expected: "children-removed A [X]",
		},
		{
			name:     "reparented",
			entry:    Entry{Kind: pubsub.ParentChangedEvent, Node: "X", NewParent: "B"},
			expected: "parent-changed X -> B",
		},
		{
			name:     "detached",
			entry:    Entry{Kind: pubsub.ParentChangedEvent, Node: "X"},
			expected: "parent-changed X -> none",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.entry.String())
		})
	}
}

func TestRecorder_MoveAsSeenByCommonAncestor(t *testing.T) {
	f := hierarchy.NewForest[string]()
	r, a, b, x := f.New("R"), f.New("A"), f.New("B"), f.New("X")
	for _, edge := range [][2]hierarchy.Node[string]{{r, a}, {r, b}, {a, x}} {
		_, err := edge[0].AddChild(edge[1])
		require.NoError(t, err)
	}

	atR := Watch(r, ValueNamer, nil)
	atB := Watch(b, ValueNamer, nil)

	require.NoError(t, x.SetParent(b))

	require.Equal(t, []string{"parent-changed X -> B"}, atR.Lines())
	require.Equal(t, []string{"children-added B [X]", "parent-changed X -> B"}, atB.Lines())

	entries := atR.Entries()
	require.Equal(t, "R", entries[0].Observer)
	require.True(t, entries[0].Forwarded())
	require.False(t, atB.Entries()[0].Forwarded())
}

func TestRecorder_PublishesToBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := pubsub.NewBroker[Entry]()
	defer broker.Close()
	sub := broker.Subscribe(ctx)

	f := hierarchy.NewForest[string]()
	p, c := f.New("P"), f.New("C")
	Watch(p, ValueNamer, broker)

	_, err := p.AddChild(c)
	require.NoError(t, err)

	var got []string
	for range 2 {
		select {
		case ev := <-sub:
			require.Equal(t, ev.Type, ev.Payload.Kind)
			got = append(got, ev.Payload.String())
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	require.Equal(t, []string{"children-added P [C]", "parent-changed C -> P"}, got)
}

func TestRecorder_DrainAndReset(t *testing.T) {
	f := hierarchy.NewForest[string]()
	p, c := f.New("P"), f.New("C")
	rec := Watch(p, ValueNamer, nil)

	_, err := p.AddChild(c)
	require.NoError(t, err)
	require.Equal(t, 2, rec.Len())

	drained := rec.Drain()
	require.Len(t, drained, 2)
	require.Zero(t, rec.Len())

	require.True(t, p.RemoveChild(c))
	require.Equal(t, []string{"children-removed P [C]"}, rec.Lines())
	rec.Reset()
	require.Empty(t, rec.Lines())
	require.Equal(t, "P", rec.Label())
}
