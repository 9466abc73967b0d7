package hierarchy

import (
	"cmp"
	"slices"
	"sync"
)

// NodeID is a stable handle for a node within its Forest.
// The zero value never names a node.
type NodeID uint64

// State is a node's position in the parent-link state machine.
type State int

const (
	// Detached means the node has no parent.
	Detached State = iota

	// Attached means the node has exactly one parent.
	Attached

	// Moving means the node is being relocated between two parents.
	Moving
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Attached:
		return "attached"
	case Moving:
		return "moving"
	default:
		return "unknown"
	}
}

// move records both endpoints of a relocation in flight.
type move[T any] struct {
	from *node[T]
	to   *node[T]
}

// node is the arena entry behind a Node handle.
type node[T any] struct {
	id       NodeID
	value    T
	parent   *node[T]
	children map[NodeID]*node[T]
	state    State
	move     *move[T]

	observers  registry[Observer[T]]
	validators registry[Validator[T]]
}

// Forest is an arena of nodes. Nodes are never removed from the arena;
// detaching a node leaves it alive as an independent root.
type Forest[T any] struct {
	mu    sync.RWMutex
	nodes []*node[T]
}

// NewForest creates an empty forest.
func NewForest[T any]() *Forest[T] {
	return &Forest[T]{}
}

// New creates a detached, childless node carrying value.
func (f *Forest[T]) New(value T) Node[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := &node[T]{
		id:       NodeID(len(f.nodes) + 1),
		value:    value,
		children: make(map[NodeID]*node[T]),
	}
	f.nodes = append(f.nodes, n)
	return Node[T]{forest: f, id: n.id}
}

// Len returns the number of nodes ever created in the forest.
func (f *Forest[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.nodes)
}

// Lookup returns the node for id.
func (f *Forest[T]) Lookup(id NodeID) (Node[T], bool) {
	if f.get(id) == nil {
		return Node[T]{}, false
	}
	return Node[T]{forest: f, id: id}, true
}

// Roots returns every node without a parent, in creation order.
func (f *Forest[T]) Roots() []Node[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var roots []Node[T]
	for _, n := range f.nodes {
		if n.parent == nil {
			roots = append(roots, Node[T]{forest: f, id: n.id})
		}
	}
	return roots
}

func (f *Forest[T]) get(id NodeID) *node[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id == 0 || int(id) > len(f.nodes) {
		return nil
	}
	return f.nodes[id-1]
}

// resolve maps a handle argument to its arena entry.
func (f *Forest[T]) resolve(n Node[T]) (*node[T], error) {
	if n.IsZero() {
		return nil, ErrNullArgument
	}
	if n.forest != f {
		return nil, ErrForeignNode
	}
	e := f.get(n.id)
	if e == nil {
		return nil, ErrForeignNode
	}
	return e, nil
}

func (f *Forest[T]) handle(n *node[T]) Node[T] {
	if n == nil {
		return Node[T]{}
	}
	return Node[T]{forest: f, id: n.id}
}

// handles converts entries to handles sorted by id.
func (f *Forest[T]) handles(ns []*node[T]) []Node[T] {
	out := make([]Node[T], 0, len(ns))
	for _, n := range ns {
		out = append(out, f.handle(n))
	}
	slices.SortFunc(out, func(a, b Node[T]) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// sortedChildren returns n's children ordered by id.
func sortedChildren[T any](n *node[T]) []*node[T] {
	out := make([]*node[T], 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *node[T]) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}
