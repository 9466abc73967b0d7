package hierarchy

import "github.com/zjrosen/treenode/internal/log"

// Observer receives structural notifications for a node and its subtree.
//
// source is the node whose observers are being notified; changed is the node
// whose child set actually changed. They differ when the event happened below
// the observed node and was republished on its way up.
//
// Implementations must be comparable so they can be unregistered.
type Observer[T any] interface {
	ChildrenAdded(source, changed Node[T], added []Node[T])
	ChildrenRemoved(source, changed Node[T], removed []Node[T])
	// ParentChanged reports node's new parent; newParent is the zero Node
	// when node was detached.
	ParentChanged(node, newParent Node[T])
}

// ObserverFuncs adapts optional callbacks to an Observer.
// Register it by pointer.
type ObserverFuncs[T any] struct {
	OnChildrenAdded   func(source, changed Node[T], added []Node[T])
	OnChildrenRemoved func(source, changed Node[T], removed []Node[T])
	OnParentChanged   func(node, newParent Node[T])
}

func (o *ObserverFuncs[T]) ChildrenAdded(source, changed Node[T], added []Node[T]) {
	if o.OnChildrenAdded != nil {
		o.OnChildrenAdded(source, changed, added)
	}
}

func (o *ObserverFuncs[T]) ChildrenRemoved(source, changed Node[T], removed []Node[T]) {
	if o.OnChildrenRemoved != nil {
		o.OnChildrenRemoved(source, changed, removed)
	}
}

func (o *ObserverFuncs[T]) ParentChanged(node, newParent Node[T]) {
	if o.OnParentChanged != nil {
		o.OnParentChanged(node, newParent)
	}
}

// AddObserver registers o on n and returns it.
func (n Node[T]) AddObserver(o Observer[T]) Observer[T] {
	e := n.entry()
	if e == nil || o == nil {
		return o
	}
	e.observers.add(o)
	return o
}

// RemoveObserver unregisters o from n. Returns false if o was not registered.
func (n Node[T]) RemoveObserver(o Observer[T]) bool {
	e := n.entry()
	if e == nil || o == nil {
		return false
	}
	return e.observers.remove(o)
}

// ObserverCount returns the number of observers registered on n.
func (n Node[T]) ObserverCount() int {
	if e := n.entry(); e != nil {
		return e.observers.len()
	}
	return 0
}

type changeKind int

const (
	childrenAdded changeKind = iota
	childrenRemoved
)

func (k changeKind) String() string {
	if k == childrenAdded {
		return "children-added"
	}
	return "children-removed"
}

// publishChildren notifies changed's observers and then bubbles the event up
// through every ancestor, stopping at the first ancestor that suppresses it.
func (f *Forest[T]) publishChildren(kind changeKind, changed *node[T], children []*node[T]) {
	if len(children) == 0 {
		return
	}
	ch := f.handle(changed)
	set := f.handles(children)

	for h := changed; h != nil; h = h.parent {
		if h != changed && suppressed(kind, h, children) {
			log.Debug(log.CatHierarchy, "forwarded event suppressed",
				"kind", kind, "at", h.id, "changed", changed.id, "child", children[0].id)
			return
		}
		src := f.handle(h)
		for _, o := range h.observers.snapshot() {
			if kind == childrenAdded {
				o.ChildrenAdded(src, ch, set)
			} else {
				o.ChildrenRemoved(src, ch, set)
			}
		}
	}
}

// suppressed reports whether h should swallow a forwarded single-child event
// because the child is relocating and the other endpoint of the move lies in
// h's subtree.
func suppressed[T any](kind changeKind, h *node[T], children []*node[T]) bool {
	if len(children) != 1 {
		return false
	}
	mv := children[0].move
	if mv == nil {
		return false
	}
	if kind == childrenAdded {
		return subtreeContains(h, mv.from)
	}
	return subtreeContains(h, mv.to)
}

// publishParentChanged notifies n's observers and every current ancestor.
// Parent changes are never suppressed.
func (f *Forest[T]) publishParentChanged(n *node[T]) {
	nd := f.handle(n)
	np := f.handle(n.parent)
	for h := n; h != nil; h = h.parent {
		for _, o := range h.observers.snapshot() {
			o.ParentChanged(nd, np)
		}
	}
}
