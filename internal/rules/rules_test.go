package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/risk"
)

func snap() *domain.Snapshot {
	return &domain.Snapshot{
		Symbol:         "ETHUSDT",
		Status:         domain.SnapshotUsable,
		MarkPrice:      2000,
		AccountBalance: 10_000,
	}
}

func pos(state domain.PositionState, qty float64) *domain.Position {
	p := domain.NewPosition("ETHUSDT")
	p.State = state
	p.Quantity = qty
	if state != domain.StateFlat {
		p.Direction = domain.Long
	}
	return p
}

func TestNewTargetEntryValidation(t *testing.T) {
	_, err := NewTargetEntry(domain.NoDirection)
	assert.Error(t, err)
	_, err = NewTargetEntry("SIDEWAYS")
	assert.Error(t, err)
	_, err = NewTargetEntry(domain.Short)
	assert.NoError(t, err)
}

func TestTargetEntryProposesOnlyWhenFlat(t *testing.T) {
	r, err := NewTargetEntry(domain.Long)
	require.NoError(t, err)

	ms := r.Propose(context.Background(), snap(), pos(domain.StateFlat, 0))
	require.Len(t, ms, 1)
	assert.Equal(t, domain.MandateEntry, ms[0].Type)
	assert.Equal(t, domain.Long, ms[0].Direction)
	assert.Equal(t, "target-entry", ms[0].Source)
	assert.NotEmpty(t, ms[0].TriggerID)
	assert.NoError(t, ms[0].Validate())

	for _, s := range []domain.PositionState{domain.StateEntering, domain.StateOpen, domain.StateReducing, domain.StateClosing} {
		assert.Empty(t, r.Propose(context.Background(), snap(), pos(s, 1)), "state %s", s)
	}
}

func TestTargetEntryTriggerIDsAreUnique(t *testing.T) {
	r, err := NewTargetEntry(domain.Long)
	require.NoError(t, err)
	a := r.Propose(context.Background(), snap(), pos(domain.StateFlat, 0))
	b := r.Propose(context.Background(), snap(), pos(domain.StateFlat, 0))
	assert.NotEqual(t, a[0].TriggerID, b[0].TriggerID)
}

func TestNewStopOutValidation(t *testing.T) {
	for _, bad := range []float64{0, -0.1, 1, 1.5} {
		_, err := NewStopOut(bad)
		assert.Error(t, err, "threshold %v", bad)
	}
	_, err := NewStopOut(0.02)
	assert.NoError(t, err)
}

func TestStopOutProposesExitOnAdverseMove(t *testing.T) {
	r, err := NewStopOut(0.02)
	require.NoError(t, err)

	s := snap()
	s.UnrealizedPnLPct = -0.03

	for _, st := range []domain.PositionState{domain.StateEntering, domain.StateOpen, domain.StateReducing} {
		ms := r.Propose(context.Background(), s, pos(st, 1))
		require.Len(t, ms, 1, "state %s", st)
		assert.Equal(t, domain.MandateExit, ms[0].Type)
		assert.Equal(t, "stop-out", ms[0].Source)
		assert.NoError(t, ms[0].Validate())
	}

	// Nothing to exit from FLAT or CLOSING.
	assert.Empty(t, r.Propose(context.Background(), s, pos(domain.StateFlat, 0)))
	assert.Empty(t, r.Propose(context.Background(), s, pos(domain.StateClosing, 1)))
}

func TestStopOutQuietWithinThreshold(t *testing.T) {
	r, err := NewStopOut(0.02)
	require.NoError(t, err)
	s := snap()
	s.UnrealizedPnLPct = -0.01
	assert.Empty(t, r.Propose(context.Background(), s, pos(domain.StateOpen, 1)))
}

func TestStopOutExpiryHealsWithPrice(t *testing.T) {
	r, err := NewStopOut(0.02)
	require.NoError(t, err)
	s := snap()
	s.UnrealizedPnLPct = -0.05

	ms := r.Propose(context.Background(), s, pos(domain.StateOpen, 1))
	require.Len(t, ms, 1)
	assert.False(t, ms[0].Expired(s), "still under water, mandate live")

	healed := snap()
	healed.UnrealizedPnLPct = 0.01
	assert.True(t, ms[0].Expired(healed), "loss healed, mandate expired")
}

func TestNewDeleverageValidation(t *testing.T) {
	_, err := NewDeleverage(0)
	assert.Error(t, err)
	_, err = NewDeleverage(0.5)
	assert.NoError(t, err)
}

func TestDeleverageProposesReduceOverFraction(t *testing.T) {
	r, err := NewDeleverage(0.5)
	require.NoError(t, err)

	// 4 * 2000 = 8000 notional against a 10000 balance: over the half cap.
	ms := r.Propose(context.Background(), snap(), pos(domain.StateOpen, 4))
	require.Len(t, ms, 1)
	assert.Equal(t, domain.MandateReduce, ms[0].Type)
	assert.Equal(t, "deleverage", ms[0].Source)
	assert.NoError(t, ms[0].Validate())

	// 2 * 2000 = 4000: within the cap, no proposal.
	assert.Empty(t, r.Propose(context.Background(), snap(), pos(domain.StateOpen, 2)))
}

func TestDeleverageOnlyActsOnLiveQuantity(t *testing.T) {
	r, err := NewDeleverage(0.5)
	require.NoError(t, err)
	assert.Empty(t, r.Propose(context.Background(), snap(), pos(domain.StateFlat, 0)))
	assert.Empty(t, r.Propose(context.Background(), snap(), pos(domain.StateEntering, 0)))
	assert.Empty(t, r.Propose(context.Background(), snap(), pos(domain.StateClosing, 4)))
}

func TestDeleverageQuietOnUnusableFacts(t *testing.T) {
	r, err := NewDeleverage(0.5)
	require.NoError(t, err)
	s := snap()
	s.AccountBalance = 0
	assert.Empty(t, r.Propose(context.Background(), s, pos(domain.StateOpen, 4)))
}

func TestDeleverageExpiryTracksNotional(t *testing.T) {
	r, err := NewDeleverage(0.5)
	require.NoError(t, err)
	ms := r.Propose(context.Background(), snap(), pos(domain.StateOpen, 4))
	require.Len(t, ms, 1)

	assert.False(t, ms[0].Expired(snap()))

	cheaper := snap()
	cheaper.MarkPrice = 1000 // notional back to 4000, within the cap
	assert.True(t, ms[0].Expired(cheaper))
}

func breakingLimits() risk.Limits {
	return risk.Limits{
		Version:               1,
		MaxPositionSize:       10,
		MaxAggregateExposure:  100_000,
		MaxCorrelatedExposure: 50_000,
		MaxLeverage:           1.0,
		MinLiquidationBuffer:  0.1,
		MaxDailyLoss:          500,
		MaxWeeklyLoss:         1500,
		MaxConsecutiveLosses:  3,
	}
}

func TestNewCircuitBreakerValidation(t *testing.T) {
	_, err := NewCircuitBreaker(risk.Limits{})
	assert.Error(t, err)
	_, err = NewCircuitBreaker(breakingLimits())
	assert.NoError(t, err)
}

func TestCircuitBreakerTripsOnEachLossLimit(t *testing.T) {
	r, err := NewCircuitBreaker(breakingLimits())
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*domain.Snapshot)
	}{
		{"daily loss", func(s *domain.Snapshot) { s.DailyRealizedPnL = -600 }},
		{"weekly loss", func(s *domain.Snapshot) { s.WeeklyRealizedPnL = -1500 }},
		{"loss streak", func(s *domain.Snapshot) { s.ConsecutiveLosses = 3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := snap()
			tc.mutate(s)
			ms := r.Propose(context.Background(), s, pos(domain.StateFlat, 0))
			require.Len(t, ms, 1)
			assert.Equal(t, domain.MandateBlock, ms[0].Type)
			assert.Equal(t, "circuit-breaker", ms[0].Source)
			assert.NoError(t, ms[0].Validate())
		})
	}
}

func TestCircuitBreakerQuietUnderLimits(t *testing.T) {
	r, err := NewCircuitBreaker(breakingLimits())
	require.NoError(t, err)
	s := snap()
	s.DailyRealizedPnL = -100
	s.ConsecutiveLosses = 2
	assert.Empty(t, r.Propose(context.Background(), s, pos(domain.StateFlat, 0)))
}

func TestCircuitBreakerExpiryResetsWithLosses(t *testing.T) {
	r, err := NewCircuitBreaker(breakingLimits())
	require.NoError(t, err)
	s := snap()
	s.ConsecutiveLosses = 5

	ms := r.Propose(context.Background(), s, pos(domain.StateFlat, 0))
	require.Len(t, ms, 1)
	assert.False(t, ms[0].Expired(s))

	recovered := snap()
	recovered.ConsecutiveLosses = 0
	assert.True(t, ms[0].Expired(recovered))
}
