package domain

import (
	"fmt"
	"time"
)

// PositionState is the lifecycle state of a per-symbol position.
type PositionState string

const (
	StateFlat     PositionState = "FLAT"
	StateEntering PositionState = "ENTERING"
	StateOpen     PositionState = "OPEN"
	StateReducing PositionState = "REDUCING"
	StateClosing  PositionState = "CLOSING"
)

// Valid reports whether s is one of the five lifecycle states.
func (s PositionState) Valid() bool {
	switch s {
	case StateFlat, StateEntering, StateOpen, StateReducing, StateClosing:
		return true
	}
	return false
}

// Position is the per-symbol lifecycle record. Exactly one exists per
// symbol; the record is never deleted, it resets to FLAT/NONE/0 when a
// close confirms. It is mutated only by the Begin*/Confirm* methods below,
// each of which corresponds to one edge of the lifecycle graph.
type Position struct {
	Symbol    string
	State     PositionState
	Direction Direction
	Quantity  float64
	UpdatedAt time.Time
}

// NewPosition returns the initial FLAT record for a symbol.
func NewPosition(symbol string) *Position {
	return &Position{
		Symbol:    symbol,
		State:     StateFlat,
		Direction: NoDirection,
		Quantity:  0,
	}
}

// LegalEdge reports whether from -> to is an edge of the lifecycle graph.
// Every state pair outside this set is an illegal transition.
func LegalEdge(from, to PositionState) bool {
	switch from {
	case StateFlat:
		return to == StateEntering
	case StateEntering:
		return to == StateOpen || to == StateClosing
	case StateOpen:
		return to == StateReducing || to == StateClosing
	case StateReducing:
		return to == StateOpen || to == StateClosing
	case StateClosing:
		return to == StateFlat
	}
	return false
}

// TargetState maps an authorized action onto the state it would move this
// position into, enforcing the action/state compatibility contract. It does
// not mutate the position. NoAction leaves the state unchanged.
func (p *Position) TargetState(a Action) (PositionState, error) {
	switch a {
	case NoAction:
		return p.State, nil
	case ActionEntry:
		if p.State != StateFlat {
			return "", fmt.Errorf("ENTRY requires FLAT, position %s is %s", p.Symbol, p.State)
		}
		return StateEntering, nil
	case ActionExit:
		switch p.State {
		case StateEntering, StateOpen, StateReducing:
			return StateClosing, nil
		}
		return "", fmt.Errorf("EXIT requires ENTERING, OPEN or REDUCING, position %s is %s", p.Symbol, p.State)
	case ActionReduce:
		switch p.State {
		case StateOpen, StateReducing:
			return StateReducing, nil
		}
		return "", fmt.Errorf("REDUCE requires OPEN or REDUCING, position %s is %s", p.Symbol, p.State)
	}
	return "", fmt.Errorf("unknown action %q for position %s", a, p.Symbol)
}

// BeginEntry moves FLAT -> ENTERING when an ENTRY action is submitted.
// The direction becomes fixed until the position returns to FLAT.
func (p *Position) BeginEntry(dir Direction) error {
	if p.State != StateFlat {
		return fmt.Errorf("cannot begin entry from %s", p.State)
	}
	if dir != Long && dir != Short {
		return fmt.Errorf("entry requires LONG or SHORT direction, got %q", dir)
	}
	p.State = StateEntering
	p.Direction = dir
	return nil
}

// ConfirmEntry moves ENTERING -> OPEN on a confirmed fill.
func (p *Position) ConfirmEntry(qty float64) error {
	if p.State != StateEntering {
		return fmt.Errorf("cannot confirm entry from %s", p.State)
	}
	if qty <= 0 {
		return fmt.Errorf("confirmed entry quantity must be positive, got %v", qty)
	}
	p.State = StateOpen
	p.Quantity = qty
	return nil
}

// BeginReduce moves OPEN -> REDUCING (or keeps REDUCING) when a REDUCE
// action is submitted.
func (p *Position) BeginReduce() error {
	switch p.State {
	case StateOpen, StateReducing:
		p.State = StateReducing
		return nil
	}
	return fmt.Errorf("cannot begin reduce from %s", p.State)
}

// ConfirmReduce moves REDUCING -> OPEN on a confirmed partial reduction.
// The remaining quantity must strictly decrease and stay positive; a
// reduction to zero is a close and must travel the EXIT path instead.
func (p *Position) ConfirmReduce(remaining float64) error {
	if p.State != StateReducing {
		return fmt.Errorf("cannot confirm reduce from %s", p.State)
	}
	if remaining <= 0 {
		return fmt.Errorf("confirmed reduce must leave a positive quantity, got %v", remaining)
	}
	if remaining >= p.Quantity {
		return fmt.Errorf("confirmed reduce must decrease quantity (%v -> %v)", p.Quantity, remaining)
	}
	p.State = StateOpen
	p.Quantity = remaining
	return nil
}

// BeginClose moves ENTERING/OPEN/REDUCING -> CLOSING when an EXIT action
// is submitted.
func (p *Position) BeginClose() error {
	switch p.State {
	case StateEntering, StateOpen, StateReducing:
		p.State = StateClosing
		return nil
	}
	return fmt.Errorf("cannot begin close from %s", p.State)
}

// ConfirmClose moves CLOSING -> FLAT on a confirmed exit and resets the
// record. The record itself survives; only its fields reset.
func (p *Position) ConfirmClose() error {
	if p.State != StateClosing {
		return fmt.Errorf("cannot confirm close from %s", p.State)
	}
	p.State = StateFlat
	p.Direction = NoDirection
	p.Quantity = 0
	return nil
}
