package ports

import (
	"context"

	"cryptoArbiterBot/internal/domain"
)

// MandateSource is one rule of the proposal layer. Sources are pluggable
// and stateless: they see the current snapshot and position and emit zero
// or more mandates valid for this cycle only. The kernel consumes only the
// resulting mandate records and knows nothing about how they were derived.
type MandateSource interface {
	// Name identifies the rule in mandate source fields and logs.
	Name() string
	// Propose emits this cycle's mandates for one symbol.
	Propose(ctx context.Context, snap *domain.Snapshot, pos *domain.Position) []domain.Mandate
}
