package domain

import "time"

// Action is the single authorized outcome of one arbitration cycle.
// HOLD and BLOCK mandates never become actions; a cycle they win resolves
// to NoAction.
type Action string

const (
	ActionEntry  Action = "ENTRY"
	ActionExit   Action = "EXIT"
	ActionReduce Action = "REDUCE"
	NoAction     Action = "NO_ACTION"
)

// DiscardReason explains why a mandate did not become the selected action.
type DiscardReason string

const (
	DiscardMalformed    DiscardReason = "malformed"
	DiscardExpired      DiscardReason = "expired"
	DiscardInadmissible DiscardReason = "inadmissible-for-state"
	DiscardRiskVetoed   DiscardReason = "risk-vetoed"
	DiscardSuppressed   DiscardReason = "conflict-suppressed"
)

// DiscardedMandate pairs a dropped mandate with the reason it was dropped.
// Detail carries reason-specific context, e.g. the name of the risk limit
// that vetoed the mandate.
type DiscardedMandate struct {
	Mandate Mandate
	Reason  DiscardReason
	Detail  string
}

// ArbitrationResult is the mandatory per-symbol output of one cycle. It is
// emitted even when the outcome is NoAction: silence is a first-class,
// loggable outcome. Together with the position state and the static risk
// configuration it makes every decision reconstructable; there are no
// hidden inputs.
type ArbitrationResult struct {
	Symbol      string
	CycleTime   time.Time
	StateBefore PositionState

	// InputMandates is the proposal set exactly as received.
	InputMandates []Mandate

	// Discarded lists every mandate that did not become the action, each
	// with its reason.
	Discarded []DiscardedMandate

	SelectedAction Action

	// Selected is the surviving mandate behind SelectedAction, nil when the
	// outcome is NoAction.
	Selected *Mandate
}

// Discard appends a dropped mandate with its reason.
func (r *ArbitrationResult) Discard(m Mandate, reason DiscardReason, detail string) {
	r.Discarded = append(r.Discarded, DiscardedMandate{Mandate: m, Reason: reason, Detail: detail})
}
