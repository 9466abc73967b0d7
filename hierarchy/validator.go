package hierarchy

import "github.com/zjrosen/treenode/internal/log"

// Validator may veto a prospective parent/child edge before it is made.
// Implementations must be comparable so they can be unregistered.
type Validator[T any] interface {
	ValidateChild(parent, child Node[T]) error
}

type funcValidator[T any] struct {
	fn func(parent, child Node[T]) error
}

func (v *funcValidator[T]) ValidateChild(parent, child Node[T]) error {
	return v.fn(parent, child)
}

// NewValidator adapts fn to a Validator. Each call returns a distinct
// registration identity.
func NewValidator[T any](fn func(parent, child Node[T]) error) Validator[T] {
	return &funcValidator[T]{fn: fn}
}

// AddChildValidator registers v on n. It is consulted whenever n is about
// to gain a child.
func (n Node[T]) AddChildValidator(v Validator[T]) {
	e := n.entry()
	if e == nil || v == nil {
		return
	}
	e.validators.add(v)
}

// RemoveChildValidator unregisters v from n.
func (n Node[T]) RemoveChildValidator(v Validator[T]) {
	e := n.entry()
	if e == nil || v == nil {
		return
	}
	e.validators.remove(v)
}

// validate runs parent's validators in registration order for every child.
// The first rejection aborts with a *ChildValidationError.
func (f *Forest[T]) validate(parent *node[T], children []*node[T]) error {
	validators := parent.validators.snapshot()
	if len(validators) == 0 {
		return nil
	}
	p := f.handle(parent)
	for _, c := range children {
		ch := f.handle(c)
		for _, v := range validators {
			if err := v.ValidateChild(p, ch); err != nil {
				log.Debug(log.CatHierarchy, "child rejected by validator",
					"parent", parent.id, "child", c.id, "error", err)
				return &ChildValidationError{Parent: parent.id, Child: c.id, Err: err}
			}
		}
	}
	return nil
}
