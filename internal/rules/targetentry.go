// Package rules holds the pluggable mandate sources that make up the
// proposal layer. Every source is stateless: it sees one snapshot and one
// position record and emits mandates valid for that cycle only. Sources
// never rank, score or predict; competing proposals are the arbitration
// engine's problem.
package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cryptoArbiterBot/internal/domain"
)

// TargetEntry proposes opening a position in a statically configured
// direction whenever the symbol is flat. It is a fixed-allocation rule,
// not a signal: whether the entry is safe is the risk gate's call.
type TargetEntry struct {
	direction domain.Direction
}

// NewTargetEntry creates the rule for a LONG or SHORT target allocation.
func NewTargetEntry(direction domain.Direction) (*TargetEntry, error) {
	if direction != domain.Long && direction != domain.Short {
		return nil, fmt.Errorf("target entry direction must be LONG or SHORT, got %q", direction)
	}
	return &TargetEntry{direction: direction}, nil
}

func (r *TargetEntry) Name() string { return "target-entry" }

// Propose emits one ENTRY mandate while the position is flat.
func (r *TargetEntry) Propose(ctx context.Context, snap *domain.Snapshot, pos *domain.Position) []domain.Mandate {
	if pos.State != domain.StateFlat {
		return nil
	}
	return []domain.Mandate{{
		Type:      domain.MandateEntry,
		Direction: r.direction,
		TriggerID: uuid.NewString(),
		Source:    r.Name(),
	}}
}
