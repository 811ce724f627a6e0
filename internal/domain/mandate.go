package domain

import "fmt"

// MandateType is the closed set of proposal kinds a rule may emit.
// The set is exhaustive on purpose: admissibility, risk gating and
// arbitration all switch over it, so a new kind fails to compile until
// every layer handles it.
type MandateType string

const (
	MandateEntry  MandateType = "ENTRY"
	MandateExit   MandateType = "EXIT"
	MandateReduce MandateType = "REDUCE"
	MandateHold   MandateType = "HOLD"
	MandateBlock  MandateType = "BLOCK"
)

// Valid reports whether t is one of the five mandate types.
func (t MandateType) Valid() bool {
	switch t {
	case MandateEntry, MandateExit, MandateReduce, MandateHold, MandateBlock:
		return true
	}
	return false
}

// AuthorityRank derives the arbitration rank from the mandate type via the
// fixed total order EXIT > REDUCE > BLOCK > HOLD > ENTRY. EXIT strictly
// dominates everything; BLOCK dominates ENTRY and HOLD but never EXIT or
// REDUCE. Unknown types rank below everything.
func (t MandateType) AuthorityRank() int {
	switch t {
	case MandateExit:
		return 5
	case MandateReduce:
		return 4
	case MandateBlock:
		return 3
	case MandateHold:
		return 2
	case MandateEntry:
		return 1
	}
	return 0
}

// ExpiryPredicate reports whether a mandate's justification no longer holds
// against the current snapshot. A mandate whose predicate is already true at
// arbitration time is discarded before ranking.
type ExpiryPredicate func(snap *Snapshot) bool

// Mandate is a one-cycle, stateless proposal for an action. Mandates are
// produced fresh every cycle by the rule layer and never persisted or
// reused; there is no storage type for a previous cycle's mandate.
type Mandate struct {
	Type MandateType

	// Direction is set for ENTRY mandates only.
	Direction Direction

	// TriggerID is an opaque reference to the upstream fact that justified
	// emission. It carries no score or magnitude semantics.
	TriggerID string

	// Source names the rule that emitted the mandate.
	Source string

	// ExpiresWhen, if non-nil, invalidates the mandate for the current
	// cycle when it evaluates true against the snapshot.
	ExpiresWhen ExpiryPredicate `json:"-"`
}

// Validate checks the mandate against the boundary schema. A mandate that
// fails validation is dropped, never coerced.
func (m Mandate) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown mandate type %q", m.Type)
	}
	if m.TriggerID == "" {
		return fmt.Errorf("%s mandate is missing a trigger reference", m.Type)
	}
	if m.Type == MandateEntry {
		if m.Direction != Long && m.Direction != Short {
			return fmt.Errorf("ENTRY mandate requires LONG or SHORT direction, got %q", m.Direction)
		}
		return nil
	}
	if m.Direction != "" && m.Direction != NoDirection {
		return fmt.Errorf("%s mandate must not carry a direction, got %q", m.Type, m.Direction)
	}
	return nil
}

// Expired reports whether the mandate's expiry condition already holds.
func (m Mandate) Expired(snap *Snapshot) bool {
	return m.ExpiresWhen != nil && m.ExpiresWhen(snap)
}
