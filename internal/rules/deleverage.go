package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cryptoArbiterBot/internal/domain"
)

// Deleverage proposes trimming a position whose notional has grown past a
// fixed fraction of the account balance. How much to trim is decided
// downstream; the mandate only says "smaller".
type Deleverage struct {
	maxFraction float64
}

// NewDeleverage creates the rule for a positive balance fraction.
func NewDeleverage(maxFraction float64) (*Deleverage, error) {
	if maxFraction <= 0 {
		return nil, fmt.Errorf("deleverage fraction must be positive, got %v", maxFraction)
	}
	return &Deleverage{maxFraction: maxFraction}, nil
}

func (r *Deleverage) Name() string { return "deleverage" }

// Propose emits one REDUCE mandate when the position notional exceeds the
// configured fraction of the account balance.
func (r *Deleverage) Propose(ctx context.Context, snap *domain.Snapshot, pos *domain.Position) []domain.Mandate {
	switch pos.State {
	case domain.StateOpen, domain.StateReducing:
	default:
		return nil
	}
	if snap.AccountBalance <= 0 || snap.MarkPrice <= 0 {
		return nil
	}
	if pos.Quantity*snap.MarkPrice <= r.maxFraction*snap.AccountBalance {
		return nil
	}
	fraction := r.maxFraction
	qty := pos.Quantity
	return []domain.Mandate{{
		Type:      domain.MandateReduce,
		TriggerID: uuid.NewString(),
		Source:    r.Name(),
		ExpiresWhen: func(s *domain.Snapshot) bool {
			return s.AccountBalance > 0 && qty*s.MarkPrice <= fraction*s.AccountBalance
		},
	}}
}
