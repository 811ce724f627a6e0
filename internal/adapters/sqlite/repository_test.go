package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoArbiterBot/internal/domain"
)

type noopLogger struct{}

func (l *noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "arbiter_test.db"),
		Logger: &noopLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewRepositoryRequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestGetBySymbolMissingIsNilNil(t *testing.T) {
	repo := newTestRepo(t)
	pos, err := repo.GetBySymbol(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestUpsertAndGetBySymbol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pos := &domain.Position{
		Symbol:    "ETHUSDT",
		State:     domain.StateOpen,
		Direction: domain.Long,
		Quantity:  2.5,
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, pos))

	got, err := repo.GetBySymbol(ctx, "ETHUSDT")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pos.Symbol, got.Symbol)
	assert.Equal(t, pos.State, got.State)
	assert.Equal(t, pos.Direction, got.Direction)
	assert.Equal(t, pos.Quantity, got.Quantity)
	assert.True(t, pos.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpsertReplacesExistingRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pos := domain.NewPosition("ETHUSDT")
	pos.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, pos))

	pos.State = domain.StateOpen
	pos.Direction = domain.Short
	pos.Quantity = 1.0
	require.NoError(t, repo.Upsert(ctx, pos))

	got, err := repo.GetBySymbol(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOpen, got.State)
	assert.Equal(t, domain.Short, got.Direction)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert keeps at most one record per symbol")
}

func TestAllReturnsEverySymbol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, symbol := range []string{"ETHUSDT", "BTCUSDT", "SOLUSDT"} {
		pos := domain.NewPosition(symbol)
		pos.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Upsert(ctx, pos))
	}

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BTCUSDT", all[0].Symbol, "records come back ordered by symbol")
}

func TestAppendAndRecentBySymbol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := domain.Mandate{Type: domain.MandateEntry, Direction: domain.Long, TriggerID: "e1", Source: "target-entry"}
	block := domain.Mandate{Type: domain.MandateBlock, TriggerID: "b1", Source: "circuit-breaker"}

	res := &domain.ArbitrationResult{
		Symbol:        "ETHUSDT",
		CycleTime:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		StateBefore:   domain.StateFlat,
		InputMandates: []domain.Mandate{entry, block},
		Discarded: []domain.DiscardedMandate{
			{Mandate: block, Reason: domain.DiscardExpired, Detail: "expiry condition already holds"},
		},
		SelectedAction: domain.ActionEntry,
		Selected:       &entry,
	}
	require.NoError(t, repo.Append(ctx, res))

	recent, err := repo.RecentBySymbol(ctx, "ETHUSDT", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	assert.Equal(t, "ETHUSDT", got.Symbol)
	assert.True(t, res.CycleTime.Equal(got.CycleTime))
	assert.Equal(t, domain.StateFlat, got.StateBefore)
	assert.Equal(t, domain.ActionEntry, got.SelectedAction)

	require.Len(t, got.InputMandates, 2)
	assert.Equal(t, "e1", got.InputMandates[0].TriggerID)
	assert.Equal(t, domain.Long, got.InputMandates[0].Direction)
	assert.Equal(t, "target-entry", got.InputMandates[0].Source)

	require.NotNil(t, got.Selected)
	assert.Equal(t, "e1", got.Selected.TriggerID)

	require.Len(t, got.Discarded, 1)
	assert.Equal(t, domain.DiscardExpired, got.Discarded[0].Reason)
	assert.Equal(t, "b1", got.Discarded[0].Mandate.TriggerID)
	assert.Equal(t, "expiry condition already holds", got.Discarded[0].Detail)
}

func TestRecentBySymbolOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := &domain.ArbitrationResult{
			Symbol:         "ETHUSDT",
			CycleTime:      base.Add(time.Duration(i) * time.Minute),
			StateBefore:    domain.StateFlat,
			SelectedAction: domain.NoAction,
		}
		require.NoError(t, repo.Append(ctx, res))
	}

	recent, err := repo.RecentBySymbol(ctx, "ETHUSDT", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CycleTime.After(recent[1].CycleTime), "newest first")
	assert.True(t, recent[1].CycleTime.After(recent[2].CycleTime))
}

func TestRecentBySymbolIsolatesSymbols(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, symbol := range []string{"ETHUSDT", "BTCUSDT"} {
		res := &domain.ArbitrationResult{
			Symbol:         symbol,
			CycleTime:      time.Now().UTC(),
			StateBefore:    domain.StateFlat,
			SelectedAction: domain.NoAction,
		}
		require.NoError(t, repo.Append(ctx, res))
	}

	recent, err := repo.RecentBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "BTCUSDT", recent[0].Symbol)
}

func TestAppendNoActionResultRoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := &domain.ArbitrationResult{
		Symbol:         "ETHUSDT",
		CycleTime:      time.Now().UTC(),
		StateBefore:    domain.StateOpen,
		SelectedAction: domain.NoAction,
	}
	require.NoError(t, repo.Append(ctx, res))

	recent, err := repo.RecentBySymbol(ctx, "ETHUSDT", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.NoAction, recent[0].SelectedAction)
	assert.Nil(t, recent[0].Selected)
	assert.Empty(t, recent[0].InputMandates)
	assert.Empty(t, recent[0].Discarded)
}
