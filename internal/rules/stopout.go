package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cryptoArbiterBot/internal/domain"
)

// StopOut proposes a full exit once the open position's unrealized loss
// crosses a fixed threshold. The mandate expires within the cycle if the
// loss has already healed by arbitration time.
type StopOut struct {
	lossPct float64 // positive fraction, e.g. 0.02 for a 2% adverse move
}

// NewStopOut creates the rule for a positive adverse-move threshold.
func NewStopOut(lossPct float64) (*StopOut, error) {
	if lossPct <= 0 || lossPct >= 1 {
		return nil, fmt.Errorf("stop-out threshold must be between 0.0 and 1.0 (exclusive), got %v", lossPct)
	}
	return &StopOut{lossPct: lossPct}, nil
}

func (r *StopOut) Name() string { return "stop-out" }

// Propose emits one EXIT mandate when the adverse move exceeds the
// threshold on a position that can still be exited.
func (r *StopOut) Propose(ctx context.Context, snap *domain.Snapshot, pos *domain.Position) []domain.Mandate {
	switch pos.State {
	case domain.StateEntering, domain.StateOpen, domain.StateReducing:
	default:
		return nil
	}
	if snap.UnrealizedPnLPct > -r.lossPct {
		return nil
	}
	threshold := r.lossPct
	return []domain.Mandate{{
		Type:      domain.MandateExit,
		TriggerID: uuid.NewString(),
		Source:    r.Name(),
		ExpiresWhen: func(s *domain.Snapshot) bool {
			return s.UnrealizedPnLPct > -threshold
		},
	}}
}
