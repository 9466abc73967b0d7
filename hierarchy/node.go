package hierarchy

// Node is a handle to a node in a Forest. Handles are comparable: two handles
// name the same node exactly when they are equal. The zero Node names no node
// and stands for "none" wherever an optional node is expected.
type Node[T any] struct {
	forest *Forest[T]
	id     NodeID
}

// IsZero reports whether n is the absent node.
func (n Node[T]) IsZero() bool {
	return n.forest == nil || n.id == 0
}

// ID returns the node's handle within its forest.
func (n Node[T]) ID() NodeID {
	return n.id
}

// Forest returns the forest owning n.
func (n Node[T]) Forest() *Forest[T] {
	return n.forest
}

func (n Node[T]) entry() *node[T] {
	if n.IsZero() {
		return nil
	}
	return n.forest.get(n.id)
}

// Value returns the payload carried by n.
func (n Node[T]) Value() T {
	if e := n.entry(); e != nil {
		return e.value
	}
	var zero T
	return zero
}

// SetValue replaces the payload carried by n.
func (n Node[T]) SetValue(v T) {
	if e := n.entry(); e != nil {
		e.value = v
	}
}

// State returns where n stands in the parent-link state machine.
func (n Node[T]) State() State {
	if e := n.entry(); e != nil {
		return e.state
	}
	return Detached
}

// Parent returns n's parent, if any.
func (n Node[T]) Parent() (Node[T], bool) {
	e := n.entry()
	if e == nil || e.parent == nil {
		return Node[T]{}, false
	}
	return n.forest.handle(e.parent), true
}

// Children returns a snapshot of n's children ordered by creation.
// The order carries no meaning; children form a set.
func (n Node[T]) Children() []Node[T] {
	e := n.entry()
	if e == nil {
		return nil
	}
	return n.forest.handles(sortedChildren(e))
}

// ChildCount returns the number of children of n.
func (n Node[T]) ChildCount() int {
	if e := n.entry(); e != nil {
		return len(e.children)
	}
	return 0
}

// HasChild reports whether c is a child of n.
func (n Node[T]) HasChild(c Node[T]) bool {
	e := n.entry()
	if e == nil || c.forest != n.forest {
		return false
	}
	_, ok := e.children[c.id]
	return ok
}

// IsAncestorOf reports whether n is a proper ancestor of other, walking the
// parent links upward from other.
func (n Node[T]) IsAncestorOf(other Node[T]) (bool, error) {
	if n.IsZero() {
		return false, ErrNullArgument
	}
	anc, err := n.forest.resolve(n)
	if err != nil {
		return false, err
	}
	o, err := n.forest.resolve(other)
	if err != nil {
		return false, err
	}
	if o.parent == nil {
		return false, nil
	}
	return subtreeContains(anc, o.parent), nil
}

// subtreeContains reports whether x is anc itself or lies below anc.
func subtreeContains[T any](anc, x *node[T]) bool {
	for cur := x; cur != nil; cur = cur.parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// Ancestors returns n's ancestors from its parent up to its root.
func (n Node[T]) Ancestors() []Node[T] {
	e := n.entry()
	if e == nil {
		return nil
	}
	var out []Node[T]
	for cur := e.parent; cur != nil; cur = cur.parent {
		out = append(out, n.forest.handle(cur))
	}
	return out
}

// Root returns the topmost ancestor of n, or n itself when detached.
func (n Node[T]) Root() Node[T] {
	e := n.entry()
	if e == nil {
		return Node[T]{}
	}
	for e.parent != nil {
		e = e.parent
	}
	return n.forest.handle(e)
}

// Depth returns the number of ancestors of n.
func (n Node[T]) Depth() int {
	e := n.entry()
	if e == nil {
		return 0
	}
	depth := 0
	for cur := e.parent; cur != nil; cur = cur.parent {
		depth++
	}
	return depth
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips that node's subtree.
func (n Node[T]) Walk(fn func(Node[T]) bool) {
	e := n.entry()
	if e == nil {
		return
	}
	walk(n.forest, e, fn)
}

func walk[T any](f *Forest[T], e *node[T], fn func(Node[T]) bool) {
	if !fn(f.handle(e)) {
		return
	}
	for _, c := range sortedChildren(e) {
		walk(f, c, fn)
	}
}

// Descendants returns every node below n in walk order.
func (n Node[T]) Descendants() []Node[T] {
	var out []Node[T]
	n.Walk(func(d Node[T]) bool {
		if d != n {
			out = append(out, d)
		}
		return true
	})
	return out
}
