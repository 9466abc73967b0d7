package script

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zjrosen/treenode/hierarchy"
)

var (
	errChildLimit = errors.New("child limit reached")
	errDenied     = errors.New("child denied")
	errNotLeaf    = errors.New("child is not a leaf")
)

// buildValidator turns a definition into a hierarchy validator over named nodes.
// max-children compares against the parent's current child count, so a single
// batch may overshoot the limit.
func buildValidator(v ValidatorDef) (hierarchy.Validator[string], error) {
	switch v.Kind {
	case "max-children":
		limit := v.Limit
		return hierarchy.NewValidator(func(parent, _ hierarchy.Node[string]) error {
			if parent.ChildCount() >= limit {
				return fmt.Errorf("%w: %s already has %d", errChildLimit, parent.Value(), limit)
			}
			return nil
		}), nil
	case "deny":
		denied := slices.Clone(v.Children)
		return hierarchy.NewValidator(func(_, child hierarchy.Node[string]) error {
			if slices.Contains(denied, child.Value()) {
				return fmt.Errorf("%w: %s", errDenied, child.Value())
			}
			return nil
		}), nil
	case "leaf-only":
		return hierarchy.NewValidator(func(_, child hierarchy.Node[string]) error {
			if child.ChildCount() > 0 {
				return fmt.Errorf("%w: %s has %d children", errNotLeaf, child.Value(), child.ChildCount())
			}
			return nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown validator kind %q", v.Kind)
	}
}
