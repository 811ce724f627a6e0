package ports

import (
	"context"

	"cryptoArbiterBot/internal/domain"
)

// PositionRepository persists the per-symbol Position record, the only
// state the decision kernel owns across cycles.
type PositionRepository interface {
	// GetBySymbol retrieves the position record for a symbol.
	// Returns nil, nil if no record exists yet.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Position, error)
	// Upsert creates or replaces the record for the position's symbol.
	// At most one record per symbol exists at any time.
	Upsert(ctx context.Context, pos *domain.Position) error
	// All retrieves every stored position record.
	All(ctx context.Context) ([]*domain.Position, error)
}

// DecisionJournal is an append-only audit record of arbitration results.
// It is owned by the surrounding system, not by the kernel: the kernel
// itself retains nothing beyond the cycle that produced a result.
type DecisionJournal interface {
	// Append records one cycle's result.
	Append(ctx context.Context, res *domain.ArbitrationResult) error
	// RecentBySymbol retrieves the most recent results for a symbol, up to a limit.
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ArbitrationResult, error)
}
