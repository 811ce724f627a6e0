package ports

import (
	"context"
	"time"

	"cryptoArbiterBot/internal/domain"
)

// ActionRequest is the execution layer's view of one authorized action.
// Sizing happens here, downstream of arbitration: the kernel authorizes the
// action, the invoking service attaches quantity and reference price.
type ActionRequest struct {
	Symbol    string
	Action    domain.Action
	Direction domain.Direction
	Quantity  float64
	// RefPrice is the mark price the cycle evaluated against, used by
	// simulated executors as the fill price.
	RefPrice float64
}

// ExecutionReport describes the outcome of submitting one action.
// Confirmed reports drive position state transitions; a failed submission
// leaves the position in its pre-failure transient state.
type ExecutionReport struct {
	OrderID     string
	Symbol      string
	Confirmed   bool
	FilledQty   float64
	AvgPrice    float64
	SubmittedAt time.Time
}

// Executor submits authorized actions to the venue (or a simulation of it).
type Executor interface {
	Submit(ctx context.Context, req ActionRequest) (*ExecutionReport, error)
}
