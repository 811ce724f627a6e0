package ports

import (
	"context"

	"cryptoArbiterBot/internal/domain"
)

// SnapshotProvider is the observation layer boundary. It assembles one
// immutable fact snapshot per symbol per cycle. A provider that cannot
// produce usable facts must return a snapshot with status halted (or an
// error); it must never hand back stale or partially filled data marked
// usable.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbol string) (*domain.Snapshot, error)
}
