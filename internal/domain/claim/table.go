package claim

import (
	"fmt"
	"strings"
)

// TransitionTable is the read-only adjacency list of the claim lifecycle.
// It is safe for concurrent use.
type TransitionTable struct {
	edges map[Status][]Transition
	all   []Transition
}

// DefaultTable returns the standard claim lifecycle
func DefaultTable() *TransitionTable {
	b := NewBuilder()

	b.Configure(StatusRegistered).
		Permit(StatusInvestigating, "Start Investigation", "Begin investigating the reported loss").
		PermitWithNotes(StatusRejected, "Reject Claim", "Reject the claim with a reason")

	b.Configure(StatusInvestigating).
		Permit(StatusAssessed, "Complete Assessment", "Record the loss assessment outcome").
		PermitWithNotes(StatusRejected, "Reject Claim", "Reject the claim with a reason")

	b.Configure(StatusAssessed).
		Permit(StatusApproved, "Approve Claim", "Approve the assessed claim for settlement").
		PermitWithNotes(StatusRejected, "Reject Claim", "Reject the claim with a reason")

	b.Configure(StatusApproved).
		Permit(StatusSettled, "Mark as Settled", "Record that the settlement has been paid")

	b.Configure(StatusSettled).
		Permit(StatusClosed, "Close Claim", "Close the settled claim file")

	return b.Build()
}

// Available returns the transitions leaving the given status, in table order.
// Terminal and unknown statuses yield an empty slice.
func (t *TransitionTable) Available(current Status) []Transition {
	edges := t.edges[current]
	result := make([]Transition, len(edges))
	copy(result, edges)
	return result
}

// CanTransition reports whether target is directly reachable from current
func (t *TransitionTable) CanTransition(current, target Status) bool {
	_, ok := t.Lookup(current, target)
	return ok
}

// Lookup returns the transition from current to target if one exists
func (t *TransitionTable) Lookup(current, target Status) (Transition, bool) {
	for _, tr := range t.edges[current] {
		if tr.To == target {
			return tr, true
		}
	}
	return Transition{}, false
}

// All returns every transition in the table
func (t *TransitionTable) All() []Transition {
	result := make([]Transition, len(t.all))
	copy(result, t.all)
	return result
}

// Validate checks that moving from current to target is allowed with the given notes.
// The returned transition is only meaningful when err is nil.
func (t *TransitionTable) Validate(current, target Status, notes string) (Transition, error) {
	if !target.IsValid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	tr, ok := t.Lookup(current, target)
	if !ok {
		return Transition{}, fmt.Errorf("%w: cannot move claim from %s to %s", ErrInvalidTransition, current, target)
	}

	if tr.RequiresNotes && strings.TrimSpace(notes) == "" {
		return Transition{}, fmt.Errorf("%w: %s", ErrNotesRequired, tr.Label)
	}

	return tr, nil
}
