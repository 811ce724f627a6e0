package risk

import (
	"context"
	"fmt"
	"math"

	"cryptoArbiterBot/internal/domain"
)

// Names of the limits a veto can cite. LimitUnevaluable marks the case
// where the projected exposure could not be computed at all; an
// unevaluable candidate is vetoed, never optimistically admitted.
const (
	LimitPositionSize       = "position-size"
	LimitAggregateExposure  = "aggregate-exposure"
	LimitCorrelatedExposure = "correlated-exposure"
	LimitLeverage           = "leverage"
	LimitLiquidationBuffer  = "liquidation-buffer"
	LimitUnevaluable        = "unevaluable"
)

// Veto records a single failed risk check. A vetoed mandate is dropped
// outright; there is no partial approval or down-sizing at this layer.
type Veto struct {
	Limit  string
	Detail string
}

func (v *Veto) Error() string {
	return fmt.Sprintf("risk veto [%s]: %s", v.Limit, v.Detail)
}

// Gate is the veto-only risk invariant check. It applies to ENTRY and
// REDUCE candidates that survived the admissibility filter; EXIT, BLOCK
// and HOLD are never risk-vetoed, so an exit is always reachable.
type Gate struct {
	limits Limits

	// orderQuantity is the engine's fixed per-order size, used only to
	// project post-execution exposure. Actual sizing happens downstream
	// in execution.
	orderQuantity float64
}

// NewGate creates a gate over a validated limit set.
func NewGate(limits Limits, orderQuantity float64) (*Gate, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if orderQuantity <= 0 || !finite(orderQuantity) {
		return nil, fmt.Errorf("order quantity for exposure projection must be positive, got %v", orderQuantity)
	}
	return &Gate{limits: limits, orderQuantity: orderQuantity}, nil
}

// Limits returns the gate's static configuration.
func (g *Gate) Limits() Limits { return g.limits }

// Check projects the post-execution exposure of an ENTRY or REDUCE mandate
// and verifies it against every exposure limit. The first failing check
// vetoes the mandate with the limit's name. A nil return means the mandate
// passed. Checks run in a fixed order so identical inputs always produce
// the identical veto.
func (g *Gate) Check(ctx context.Context, m domain.Mandate, pos domain.Position, snap *domain.Snapshot) *Veto {
	switch m.Type {
	case domain.MandateEntry, domain.MandateReduce:
	default:
		return nil
	}

	if snap == nil || !finite(snap.MarkPrice, snap.AccountBalance, snap.AggregateExposure, snap.CorrelatedExposure) {
		return &Veto{Limit: LimitUnevaluable, Detail: "snapshot sizing inputs missing or malformed"}
	}
	if snap.MarkPrice <= 0 {
		return &Veto{Limit: LimitUnevaluable, Detail: fmt.Sprintf("mark price %v is not usable", snap.MarkPrice)}
	}
	if snap.AccountBalance <= 0 {
		return &Veto{Limit: LimitUnevaluable, Detail: fmt.Sprintf("account balance %v is not usable", snap.AccountBalance)}
	}

	var projQty float64
	switch m.Type {
	case domain.MandateEntry:
		projQty = g.orderQuantity
	case domain.MandateReduce:
		if pos.Quantity <= 0 || !finite(pos.Quantity) {
			return &Veto{Limit: LimitUnevaluable, Detail: fmt.Sprintf("cannot project a reduction of quantity %v", pos.Quantity)}
		}
		projQty = pos.Quantity - math.Min(g.orderQuantity, pos.Quantity)
	}

	delta := (projQty - pos.Quantity) * snap.MarkPrice
	projAggregate := math.Max(0, snap.AggregateExposure+delta)
	projCorrelated := math.Max(0, snap.CorrelatedExposure+delta)

	if projQty > g.limits.MaxPositionSize {
		return &Veto{Limit: LimitPositionSize, Detail: fmt.Sprintf("projected quantity %v exceeds cap %v", projQty, g.limits.MaxPositionSize)}
	}
	if projAggregate > g.limits.MaxAggregateExposure {
		return &Veto{Limit: LimitAggregateExposure, Detail: fmt.Sprintf("projected aggregate exposure %v exceeds cap %v", projAggregate, g.limits.MaxAggregateExposure)}
	}
	if projCorrelated > g.limits.MaxCorrelatedExposure {
		return &Veto{Limit: LimitCorrelatedExposure, Detail: fmt.Sprintf("projected correlated exposure %v exceeds cap %v", projCorrelated, g.limits.MaxCorrelatedExposure)}
	}
	if projAggregate/snap.AccountBalance > g.limits.MaxLeverage {
		return &Veto{Limit: LimitLeverage, Detail: fmt.Sprintf("projected leverage %v exceeds ceiling %v", projAggregate/snap.AccountBalance, g.limits.MaxLeverage)}
	}
	if projQty > 0 && snap.LiquidationPrice > 0 {
		buffer := math.Abs(snap.MarkPrice-snap.LiquidationPrice) / snap.MarkPrice
		if buffer < g.limits.MinLiquidationBuffer {
			return &Veto{Limit: LimitLiquidationBuffer, Detail: fmt.Sprintf("liquidation buffer %v below minimum %v", buffer, g.limits.MinLiquidationBuffer)}
		}
	}

	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
