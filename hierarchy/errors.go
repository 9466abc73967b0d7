package hierarchy

import (
	"errors"
	"fmt"
)

// Argument errors
var (
	// ErrNullArgument indicates that a required node argument was the zero node.
	ErrNullArgument = errors.New("node argument is absent")

	// ErrForeignNode indicates that a node handle belongs to a different forest.
	ErrForeignNode = errors.New("node belongs to a different forest")
)

// Structure errors
var (
	// ErrSelfParent indicates an attempt to make a node its own parent.
	ErrSelfParent = errors.New("node cannot be parent to itself")

	// ErrCycle indicates that the requested edge would make a node its own ancestor.
	ErrCycle = errors.New("cycle detected: child is already contained in the tree above the designated parent")

	// ErrChildValidation indicates that a registered validator rejected an edit.
	// Returned errors are *ChildValidationError values that match this sentinel.
	ErrChildValidation = errors.New("child validation failed")

	// ErrInvariantViolation indicates an internal consistency failure.
	// It is only ever raised by panic and should never be recovered.
	ErrInvariantViolation = errors.New("hierarchy invariant violated")
)

// ChildValidationError reports which validator vetoed which edge.
type ChildValidationError struct {
	Parent NodeID
	Child  NodeID
	Err    error
}

func (e *ChildValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: child %d rejected by parent %d", ErrChildValidation, e.Child, e.Parent)
	}
	return fmt.Sprintf("%s: child %d rejected by parent %d: %v", ErrChildValidation, e.Child, e.Parent, e.Err)
}

// Unwrap returns the validator's own error.
func (e *ChildValidationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrChildValidation) match.
func (e *ChildValidationError) Is(target error) bool {
	return target == ErrChildValidation
}

// invariant panics with ErrInvariantViolation when cond is false.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...))
	}
}
