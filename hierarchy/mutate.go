package hierarchy

import "github.com/zjrosen/treenode/internal/log"

// SetParent makes p the parent of n. The zero Node detaches n.
//
// Setting the current parent again is a no-op, as is any call made while n is
// being relocated. Relocating n between two parents is reported to common
// ancestors as a single ParentChanged event.
func (n Node[T]) SetParent(p Node[T]) error {
	e, err := n.forest.resolve(n)
	if err != nil {
		return err
	}
	var to *node[T]
	if !p.IsZero() {
		if to, err = n.forest.resolve(p); err != nil {
			return err
		}
	}
	_, err = n.forest.relink(e, to)
	return err
}

// Detach removes n from its parent, leaving it as an independent root.
func (n Node[T]) Detach() error {
	return n.SetParent(Node[T]{})
}

// AddChild makes c a child of n. Returns false without error if c is already
// a child of n or is being relocated. A child currently attached elsewhere is
// relocated.
func (n Node[T]) AddChild(c Node[T]) (bool, error) {
	e, err := n.forest.resolve(n)
	if err != nil {
		return false, err
	}
	ce, err := n.forest.resolve(c)
	if err != nil {
		return false, err
	}
	if subtreeContains(ce, e) {
		return false, ErrCycle
	}
	if ce.parent == e || ce.state == Moving {
		return false, nil
	}
	return n.forest.relink(ce, e)
}

// AddChildren makes every node in cs a child of n. All arguments are checked
// and validated before anything changes, including those already attached to
// n: one rejection leaves the forest untouched. Observers of n receive a
// single aggregate ChildrenAdded event. Children taken from another parent
// are relocations, so a common ancestor of both parents hears nothing of the
// removal, nor of the addition when only one child moves.
// Returns whether any child was added.
func (n Node[T]) AddChildren(cs ...Node[T]) (bool, error) {
	f := n.forest
	e, err := f.resolve(n)
	if err != nil {
		return false, err
	}

	seen := make(map[NodeID]struct{}, len(cs))
	members := make([]*node[T], 0, len(cs))
	for _, c := range cs {
		ce, err := f.resolve(c)
		if err != nil {
			return false, err
		}
		if subtreeContains(ce, e) {
			return false, ErrCycle
		}
		if _, dup := seen[ce.id]; dup {
			continue
		}
		seen[ce.id] = struct{}{}
		members = append(members, ce)
	}
	if len(members) == 0 {
		return false, nil
	}
	if err := f.validate(e, members); err != nil {
		return false, err
	}

	// only previously-absent children that are not mid-relocation
	batch := members[:0]
	for _, c := range members {
		if c.parent != e && c.state != Moving {
			batch = append(batch, c)
		}
	}
	if len(batch) == 0 {
		return false, nil
	}

	// children leaving another parent are relocations until the batch settles
	var moving []*node[T]
	defer func() {
		for _, c := range moving {
			f.settle(c)
		}
	}()
	for _, c := range batch {
		if old := c.parent; old != nil {
			c.state = Moving
			c.move = &move[T]{from: old, to: e}
			moving = append(moving, c)
		}
	}

	for _, c := range moving {
		f.unlink(c.move.from, c)
		f.publishChildren(childrenRemoved, c.move.from, []*node[T]{c})
	}
	for _, c := range batch {
		f.link(e, c)
	}
	log.Debug(log.CatHierarchy, "children attached", "parent", e.id, "count", len(batch))

	f.publishChildren(childrenAdded, e, batch)
	for _, c := range batch {
		f.publishParentChanged(c)
	}
	return true, nil
}

// RemoveChild detaches c from n. Returns false if c is not a child of n.
func (n Node[T]) RemoveChild(c Node[T]) bool {
	e := n.entry()
	if e == nil || c.forest != n.forest {
		return false
	}
	ce, ok := e.children[c.id]
	if !ok {
		return false
	}
	changed, _ := n.forest.relink(ce, nil)
	return changed
}

// RemoveChildren detaches every node in cs that is currently a child of n.
// Observers of n receive a single aggregate ChildrenRemoved event.
// Returns whether any child was removed.
func (n Node[T]) RemoveChildren(cs ...Node[T]) bool {
	f := n.forest
	e := n.entry()
	if e == nil {
		return false
	}

	seen := make(map[NodeID]struct{}, len(cs))
	batch := make([]*node[T], 0, len(cs))
	for _, c := range cs {
		if c.forest != f {
			continue
		}
		ce, ok := e.children[c.id]
		if !ok || ce.state == Moving {
			continue
		}
		if _, dup := seen[ce.id]; dup {
			continue
		}
		seen[ce.id] = struct{}{}
		batch = append(batch, ce)
	}
	if len(batch) == 0 {
		return false
	}
	for _, c := range batch {
		f.unlink(e, c)
	}
	log.Debug(log.CatHierarchy, "children detached", "parent", e.id, "count", len(batch))

	f.publishChildren(childrenRemoved, e, batch)
	for _, c := range batch {
		f.publishParentChanged(c)
	}
	return true
}

// ClearChildren detaches all children of n.
// It panics with ErrInvariantViolation if any child survives.
func (n Node[T]) ClearChildren() {
	e := n.entry()
	if e == nil {
		return
	}
	n.RemoveChildren(n.Children()...)
	invariant(len(e.children) == 0, "node %d still has %d children after clearing", e.id, len(e.children))
}

// relink is the single entry point for changing a node's parent link.
// It dispatches on the node's state and reports whether the link changed.
func (f *Forest[T]) relink(n, to *node[T]) (bool, error) {
	if n == to {
		return false, ErrSelfParent
	}
	if n.state == Moving || n.parent == to {
		return false, nil
	}
	if to != nil {
		if subtreeContains(n, to) {
			return false, ErrCycle
		}
		if err := f.validate(to, []*node[T]{n}); err != nil {
			return false, err
		}
	}

	from := n.parent
	if from != nil && to != nil {
		n.state = Moving
		n.move = &move[T]{from: from, to: to}
		defer f.settle(n)
		log.Debug(log.CatHierarchy, "node relocating", "node", n.id, "from", from.id, "to", to.id)
	}

	if from != nil {
		f.unlink(from, n)
		log.Debug(log.CatHierarchy, "child detached", "parent", from.id, "child", n.id)
		f.publishChildren(childrenRemoved, from, []*node[T]{n})
	}
	if to != nil {
		f.link(to, n)
		log.Debug(log.CatHierarchy, "child attached", "parent", to.id, "child", n.id)
		f.publishChildren(childrenAdded, to, []*node[T]{n})
	}
	f.publishParentChanged(n)
	return true, nil
}

// link and unlink keep both halves of an edge in step.
func (f *Forest[T]) link(parent, child *node[T]) {
	parent.children[child.id] = child
	child.parent = parent
	if child.state != Moving {
		child.state = Attached
	}
}

func (f *Forest[T]) unlink(parent, child *node[T]) {
	delete(parent.children, child.id)
	child.parent = nil
	if child.state != Moving {
		child.state = Detached
	}
}

// settle disarms a finished relocation.
func (f *Forest[T]) settle(n *node[T]) {
	n.move = nil
	if n.parent != nil {
		n.state = Attached
	} else {
		n.state = Detached
	}
}
