// Package kernel is the decision core of the engine: once per cycle per
// symbol it resolves the proposed mandate set into at most one authorized
// action, refusing anything that would breach a risk invariant or the
// position lifecycle contract. Evaluation is pure computation over
// already-resolved inputs; the kernel performs no I/O, keeps no state
// between cycles, and never mutates the position it is given.
package kernel

import (
	"context"
	"fmt"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/ports"
	"cryptoArbiterBot/internal/risk"
)

// Kernel evaluates one symbol's cycle. It holds only static collaborators
// (the risk gate); every Evaluate call is independent.
type Kernel struct {
	gate *risk.Gate
}

// New creates a kernel over a configured risk gate.
func New(gate *risk.Gate) (*Kernel, error) {
	if gate == nil {
		return nil, fmt.Errorf("risk gate is required for the kernel")
	}
	return &Kernel{gate: gate}, nil
}

// Evaluate runs one cycle for one symbol: boundary validation, expiry,
// admissibility, risk gating, then arbitration. It always returns a result
// when it returns at all — NoAction included — so that silence is a
// recorded outcome, not a missing one.
//
// Two conditions abort the cycle instead of producing a result:
// ports.ErrUpstreamHalted when the snapshot is not usable (terminal for
// the symbol, never downgraded to cached or default data), and
// ports.ErrIllegalTransition when the authorized action would not map to a
// legal lifecycle edge.
func (k *Kernel) Evaluate(ctx context.Context, snap *domain.Snapshot, pos domain.Position, proposed []domain.Mandate) (*domain.ArbitrationResult, error) {
	if !snap.Usable() {
		return nil, fmt.Errorf("%w: symbol %s", ports.ErrUpstreamHalted, pos.Symbol)
	}

	res := &domain.ArbitrationResult{
		Symbol:         snap.Symbol,
		CycleTime:      snap.Time,
		StateBefore:    pos.State,
		InputMandates:  append([]domain.Mandate(nil), proposed...),
		SelectedAction: domain.NoAction,
	}

	survivors := make([]domain.Mandate, 0, len(proposed))
	for _, m := range proposed {
		if err := m.Validate(); err != nil {
			res.Discard(m, domain.DiscardMalformed, err.Error())
			continue
		}
		if m.Expired(snap) {
			res.Discard(m, domain.DiscardExpired, "expiry condition already holds")
			continue
		}
		if !Admissible(pos.State, m.Type) {
			res.Discard(m, domain.DiscardInadmissible, fmt.Sprintf("position state is %s", pos.State))
			continue
		}
		if v := k.gate.Check(ctx, m, pos, snap); v != nil {
			res.Discard(m, domain.DiscardRiskVetoed, fmt.Sprintf("%s: %s", v.Limit, v.Detail))
			continue
		}
		survivors = append(survivors, m)
	}

	action, selected, suppressed := arbitrate(survivors)
	for _, m := range suppressed {
		res.Discard(m, domain.DiscardSuppressed, string(action))
	}
	res.SelectedAction = action
	res.Selected = selected

	// Admissibility already guarantees the action maps onto a legal edge;
	// a failure here is a broken invariant and aborts the cycle rather
	// than silently coercing state.
	if _, err := pos.TargetState(action); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
	}

	return res, nil
}
