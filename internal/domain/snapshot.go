package domain

import "time"

// SnapshotStatus is the upstream health signal attached to a snapshot.
type SnapshotStatus string

const (
	SnapshotUsable SnapshotStatus = "usable"
	SnapshotHalted SnapshotStatus = "halted"
)

// Snapshot is the immutable, already-validated fact record the observation
// layer produces for one symbol at the start of a cycle. The kernel treats
// it as opaque input: it never fetches, caches or substitutes data, and it
// refuses to evaluate at all when the status reports halted.
type Snapshot struct {
	Symbol string
	Status SnapshotStatus
	Time   time.Time

	// Pricing and account facts used for exposure projection.
	MarkPrice      float64
	AccountBalance float64

	// Current exposure, in quote-currency notional. AggregateExposure spans
	// the whole account; CorrelatedExposure spans the symbol's risk bucket.
	AggregateExposure  float64
	CorrelatedExposure float64

	// LiquidationPrice is the estimated liquidation level of the open
	// position, zero when no position is open.
	LiquidationPrice float64

	// UnrealizedPnLPct is the open position's unrealized return as a
	// fraction of entry notional (negative when under water).
	UnrealizedPnLPct float64

	// Realized loss tracking, consumed by circuit-breaker rules.
	DailyRealizedPnL  float64
	WeeklyRealizedPnL float64
	ConsecutiveLosses int
}

// Usable reports whether the upstream signal allows evaluation this cycle.
func (s *Snapshot) Usable() bool {
	return s != nil && s.Status == SnapshotUsable
}
