package hierarchy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/treenode/hierarchy"
)

var errNoZ = errors.New("Z is not allowed here")

func denyZ() hierarchy.Validator[string] {
	return hierarchy.NewValidator(func(_, child Node) error {
		if child.Value() == "Z" {
			return errNoZ
		}
		return nil
	})
}

func TestValidator_RejectsSingleAttach(t *testing.T) {
	tr := newTree("P", "Z", "Q")
	tr.link(t, "Q", "Z")
	tr.n("P").AddChildValidator(denyZ())
	atP := tr.watch("P")
	atQ := tr.watch("Q")

	added, err := tr.n("P").AddChild(tr.n("Z"))
	require.False(t, added)
	require.ErrorIs(t, err, hierarchy.ErrChildValidation)
	require.ErrorIs(t, err, errNoZ)

	var verr *hierarchy.ChildValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, tr.n("P").ID(), verr.Parent)
	require.Equal(t, tr.n("Z").ID(), verr.Child)

	require.ErrorIs(t, tr.n("Z").SetParent(tr.n("P")), hierarchy.ErrChildValidation)

	require.Equal(t, "Q", parentName(tr.n("Z")), "a rejected relocation leaves the old link")
	require.Empty(t, atP.events)
	require.Empty(t, atQ.events)
}

func TestValidator_BatchIsAllOrNothing(t *testing.T) {
	tr := newTree("P", "C", "D", "Z")
	tr.n("P").AddChildValidator(denyZ())
	atP := tr.watch("P")

	added, err := tr.n("P").AddChildren(tr.n("C"), tr.n("Z"), tr.n("D"))
	require.False(t, added)
	require.ErrorIs(t, err, errNoZ)
	require.Empty(t, tr.n("P").Children())
	require.Empty(t, atP.events)

	added, err = tr.n("P").AddChildren(tr.n("C"), tr.n("D"))
	require.NoError(t, err)
	require.True(t, added)
}

func TestValidator_RegistrationOrderAndShortCircuit(t *testing.T) {
	tr := newTree("P", "C")
	var calls []string
	first := hierarchy.NewValidator(func(_, _ Node) error {
		calls = append(calls, "first")
		return errors.New("first says no")
	})
	second := hierarchy.NewValidator(func(_, _ Node) error {
		calls = append(calls, "second")
		return nil
	})
	tr.n("P").AddChildValidator(second)
	tr.n("P").AddChildValidator(first)

	_, err := tr.n("P").AddChild(tr.n("C"))
	require.ErrorContains(t, err, "first says no")
	require.Equal(t, []string{"second", "first"}, calls)

	tr.n("P").RemoveChildValidator(first)
	calls = nil
	tr.link(t, "P", "C")
	require.Equal(t, []string{"second"}, calls)
}

func TestValidator_SeesProspectiveEdge(t *testing.T) {
	tr := newTree("P", "C")
	var seenParent, seenChild Node
	var parentAtCall string
	tr.n("P").AddChildValidator(hierarchy.NewValidator(func(parent, child Node) error {
		seenParent, seenChild = parent, child
		parentAtCall = parentName(child)
		return nil
	}))

	tr.link(t, "P", "C")
	require.Equal(t, tr.n("P"), seenParent)
	require.Equal(t, tr.n("C"), seenChild)
	require.Equal(t, "none", parentAtCall, "validators run before the link is made")
}

func TestValidator_NotConsultedOnDetach(t *testing.T) {
	tr := newTree("P", "C", "D")
	tr.link(t, "P", "C")
	tr.link(t, "P", "D")
	calls := 0
	tr.n("P").AddChildValidator(hierarchy.NewValidator(func(_, _ Node) error {
		calls++
		return errors.New("never")
	}))

	require.True(t, tr.n("P").RemoveChild(tr.n("C")))
	require.NoError(t, tr.n("D").Detach())
	require.Equal(t, 0, calls)
}

func TestValidator_SkippedForExistingChild(t *testing.T) {
	tr := newTree("P", "C")
	tr.link(t, "P", "C")
	tr.n("P").AddChildValidator(hierarchy.NewValidator(func(_, _ Node) error {
		return errors.New("closed")
	}))

	added, err := tr.n("P").AddChild(tr.n("C"))
	require.NoError(t, err, "a no-op attach has nothing to validate")
	require.False(t, added)
}

func TestValidator_BatchChecksExistingMembers(t *testing.T) {
	tr := newTree("P", "Z", "D")
	tr.link(t, "P", "Z")
	tr.n("P").AddChildValidator(denyZ())
	atP := tr.watch("P")

	added, err := tr.n("P").AddChildren(tr.n("Z"), tr.n("D"))
	require.False(t, added)
	require.ErrorIs(t, err, hierarchy.ErrChildValidation)
	require.ErrorIs(t, err, errNoZ)

	var verr *hierarchy.ChildValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, tr.n("Z").ID(), verr.Child)

	require.Equal(t, []string{"Z"}, names(tr.n("P").Children()))
	require.Equal(t, "none", parentName(tr.n("D")))
	require.Empty(t, atP.events)

	_, err = tr.n("P").AddChildren(tr.n("Z"))
	require.ErrorIs(t, err, errNoZ, "a batch with nothing new is still checked")
}

func TestValidator_DistinctIdentities(t *testing.T) {
	fn := func(_, _ Node) error { return errors.New("no") }
	a := hierarchy.NewValidator(fn)
	b := hierarchy.NewValidator(fn)
	require.NotEqual(t, a, b)

	tr := newTree("P", "C")
	tr.n("P").AddChildValidator(a)
	tr.n("P").AddChildValidator(b)
	tr.n("P").RemoveChildValidator(a)

	_, err := tr.n("P").AddChild(tr.n("C"))
	require.Error(t, err, "b is still registered")
}
