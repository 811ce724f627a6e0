package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/risk"
)

// CircuitBreaker proposes blocking new risk after realized losses breach
// the configured daily/weekly loss limits or the consecutive-loss limit.
// A BLOCK never closes anything — it only keeps ENTRY and HOLD from
// winning arbitration, so exits stay reachable while the breaker is
// tripped.
type CircuitBreaker struct {
	limits risk.Limits
}

// NewCircuitBreaker creates the rule over a validated limit set.
func NewCircuitBreaker(limits risk.Limits) (*CircuitBreaker, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("circuit breaker requires valid limits: %w", err)
	}
	return &CircuitBreaker{limits: limits}, nil
}

func (r *CircuitBreaker) Name() string { return "circuit-breaker" }

// Propose emits one BLOCK mandate while any loss limit is breached.
func (r *CircuitBreaker) Propose(ctx context.Context, snap *domain.Snapshot, pos *domain.Position) []domain.Mandate {
	if !r.tripped(snap) {
		return nil
	}
	limits := r.limits
	return []domain.Mandate{{
		Type:      domain.MandateBlock,
		TriggerID: uuid.NewString(),
		Source:    r.Name(),
		ExpiresWhen: func(s *domain.Snapshot) bool {
			return !trippedBy(s, limits)
		},
	}}
}

func (r *CircuitBreaker) tripped(snap *domain.Snapshot) bool {
	return trippedBy(snap, r.limits)
}

func trippedBy(snap *domain.Snapshot, limits risk.Limits) bool {
	if snap.DailyRealizedPnL <= -limits.MaxDailyLoss {
		return true
	}
	if snap.WeeklyRealizedPnL <= -limits.MaxWeeklyLoss {
		return true
	}
	return snap.ConsecutiveLosses >= limits.MaxConsecutiveLosses
}
