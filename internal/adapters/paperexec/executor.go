package paperexec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/ports"
)

// Executor implements ports.Executor without touching a venue: every
// submission fills instantly at the cycle's reference price, shifted by a
// flat simulated slippage against the order. Useful for dry runs where the
// observation side is real but execution is not.
type Executor struct {
	logger   ports.Logger
	slippage float64 // fraction of price paid against the order, e.g. 0.0005
}

// New creates a paper executor with a non-negative slippage fraction.
func New(logger ports.Logger, slippage float64) (*Executor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for paper executor")
	}
	if slippage < 0 || slippage >= 1 {
		return nil, fmt.Errorf("slippage must be in [0.0, 1.0), got %v", slippage)
	}
	return &Executor{logger: logger, slippage: slippage}, nil
}

// Submit confirms the action immediately at the adjusted reference price.
func (e *Executor) Submit(ctx context.Context, req ports.ActionRequest) (*ports.ExecutionReport, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %v", ports.ErrInvalidRequest, req.Quantity)
	}
	if req.RefPrice <= 0 {
		return nil, fmt.Errorf("%w: reference price must be positive, got %v", ports.ErrInvalidRequest, req.RefPrice)
	}

	var side domain.OrderSide
	switch req.Action {
	case domain.ActionEntry:
		side = req.Direction.EntrySide()
	case domain.ActionReduce, domain.ActionExit:
		side = req.Direction.CloseSide()
	default:
		return nil, fmt.Errorf("%w: action %q is not executable", ports.ErrInvalidRequest, req.Action)
	}

	fillPrice := req.RefPrice
	if side == domain.Buy {
		fillPrice *= 1 + e.slippage
	} else {
		fillPrice *= 1 - e.slippage
	}

	report := &ports.ExecutionReport{
		OrderID:     uuid.NewString(),
		Symbol:      req.Symbol,
		Confirmed:   true,
		FilledQty:   req.Quantity,
		AvgPrice:    fillPrice,
		SubmittedAt: time.Now().UTC(),
	}
	e.logger.Info(ctx, "paper fill", map[string]interface{}{
		"symbol":   req.Symbol,
		"action":   req.Action,
		"side":     side,
		"quantity": req.Quantity,
		"price":    fillPrice,
		"orderID":  report.OrderID,
	})
	return report, nil
}
