package hierarchy_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/treenode/hierarchy"
)

type Node = hierarchy.Node[string]

// tree names every node by its payload.
type tree struct {
	f     *hierarchy.Forest[string]
	nodes map[string]Node
}

func newTree(names ...string) *tree {
	tr := &tree{
		f:     hierarchy.NewForest[string](),
		nodes: make(map[string]Node, len(names)),
	}
	for _, name := range names {
		tr.nodes[name] = tr.f.New(name)
	}
	return tr
}

func (tr *tree) n(name string) Node {
	n, ok := tr.nodes[name]
	if !ok {
		panic("unknown node " + name)
	}
	return n
}

// link attaches child under parent and fails the test on error.
func (tr *tree) link(t *testing.T, parent, child string) {
	t.Helper()
	added, err := tr.n(parent).AddChild(tr.n(child))
	require.NoError(t, err)
	require.True(t, added, "%s should be added under %s", child, parent)
}

func (tr *tree) watch(name string) *recorder {
	r := &recorder{}
	tr.n(name).AddObserver(r)
	return r
}

func names(ns []Node) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Value())
	}
	return out
}

func parentName(n Node) string {
	p, ok := n.Parent()
	if !ok {
		return "none"
	}
	return p.Value()
}

// recorder logs every notification as a compact line.
type recorder struct {
	events []string
}

func (r *recorder) ChildrenAdded(source, changed Node, added []Node) {
	r.events = append(r.events, fmt.Sprintf("added %s %v via %s", changed.Value(), names(added), source.Value()))
}

func (r *recorder) ChildrenRemoved(source, changed Node, removed []Node) {
	r.events = append(r.events, fmt.Sprintf("removed %s %v via %s", changed.Value(), names(removed), source.Value()))
}

func (r *recorder) ParentChanged(node, newParent Node) {
	to := "none"
	if !newParent.IsZero() {
		to = newParent.Value()
	}
	r.events = append(r.events, fmt.Sprintf("parent %s -> %s", node.Value(), to))
}

func (r *recorder) reset() {
	r.events = nil
}
