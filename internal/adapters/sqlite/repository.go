package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.PositionRepository and ports.DecisionJournal
// using SQLite. Positions are the kernel's only persisted state; the
// decision journal is an externally owned, append-only audit record.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/arbiter.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the cycle writer and readers.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// The Go driver benefits from a single connection; SQLite serializes
	// writers internally anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite repository ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		symbol     TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		direction  TEXT NOT NULL,
		quantity   REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS decisions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol          TEXT NOT NULL,
		cycle_time      TIMESTAMP NOT NULL,
		state_before    TEXT NOT NULL,
		selected_action TEXT NOT NULL,
		selected_trigger TEXT NOT NULL DEFAULT '',
		inputs          TEXT NOT NULL,
		discards        TEXT NOT NULL,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_symbol_time ON decisions(symbol, cycle_time);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// --- ports.PositionRepository ---

// GetBySymbol retrieves the position record for a symbol.
// Returns nil, nil if no record exists yet.
func (r *Repository) GetBySymbol(ctx context.Context, symbol string) (*domain.Position, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT symbol, state, direction, quantity, updated_at FROM positions WHERE symbol = ?`, symbol)

	var pos domain.Position
	err := row.Scan(&pos.Symbol, &pos.State, &pos.Direction, &pos.Quantity, &pos.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query position for %s: %v", ports.ErrQueryFailed, symbol, err)
	}
	return &pos, nil
}

// Upsert creates or replaces the record for the position's symbol.
func (r *Repository) Upsert(ctx context.Context, pos *domain.Position) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (symbol, state, direction, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			state = excluded.state,
			direction = excluded.direction,
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`,
		pos.Symbol, string(pos.State), string(pos.Direction), pos.Quantity, pos.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert position for %s: %v", ports.ErrUpdateFailed, pos.Symbol, err)
	}
	return nil
}

// All retrieves every stored position record.
func (r *Repository) All(ctx context.Context) ([]*domain.Position, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, state, direction, quantity, updated_at FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query positions: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(&pos.Symbol, &pos.State, &pos.Direction, &pos.Quantity, &pos.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan position row: %v", ports.ErrQueryFailed, err)
		}
		positions = append(positions, &pos)
	}
	return positions, rows.Err()
}

// --- ports.DecisionJournal ---

// mandateRecord is the journal's flat view of one mandate. Expiry
// predicates are code, not data, so they are not stored; everything else
// needed to reconstruct the decision is.
type mandateRecord struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	TriggerID string `json:"trigger_id"`
	Source    string `json:"source"`
}

type discardRecord struct {
	mandateRecord
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func toMandateRecord(m domain.Mandate) mandateRecord {
	rec := mandateRecord{Type: string(m.Type), TriggerID: m.TriggerID, Source: m.Source}
	if m.Type == domain.MandateEntry {
		rec.Direction = string(m.Direction)
	}
	return rec
}

func fromMandateRecord(rec mandateRecord) domain.Mandate {
	return domain.Mandate{
		Type:      domain.MandateType(rec.Type),
		Direction: domain.Direction(rec.Direction),
		TriggerID: rec.TriggerID,
		Source:    rec.Source,
	}
}

// Append records one cycle's result.
func (r *Repository) Append(ctx context.Context, res *domain.ArbitrationResult) error {
	inputs := make([]mandateRecord, 0, len(res.InputMandates))
	for _, m := range res.InputMandates {
		inputs = append(inputs, toMandateRecord(m))
	}
	discards := make([]discardRecord, 0, len(res.Discarded))
	for _, d := range res.Discarded {
		discards = append(discards, discardRecord{
			mandateRecord: toMandateRecord(d.Mandate),
			Reason:        string(d.Reason),
			Detail:        d.Detail,
		})
	}

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("failed to encode input mandates: %w", err)
	}
	discardsJSON, err := json.Marshal(discards)
	if err != nil {
		return fmt.Errorf("failed to encode discarded mandates: %w", err)
	}

	selectedTrigger := ""
	if res.Selected != nil {
		selectedTrigger = res.Selected.TriggerID
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO decisions (symbol, cycle_time, state_before, selected_action, selected_trigger, inputs, discards)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Symbol, res.CycleTime, string(res.StateBefore), string(res.SelectedAction),
		selectedTrigger, string(inputsJSON), string(discardsJSON))
	if err != nil {
		return fmt.Errorf("%w: failed to append decision for %s: %v", ports.ErrUpdateFailed, res.Symbol, err)
	}
	return nil
}

// RecentBySymbol retrieves the most recent results for a symbol, newest first.
func (r *Repository) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ArbitrationResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, cycle_time, state_before, selected_action, selected_trigger, inputs, discards
		FROM decisions WHERE symbol = ? ORDER BY cycle_time DESC, id DESC LIMIT ?`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query decisions for %s: %v", ports.ErrQueryFailed, symbol, err)
	}
	defer rows.Close()

	var results []*domain.ArbitrationResult
	for rows.Next() {
		var res domain.ArbitrationResult
		var selectedTrigger, inputsJSON, discardsJSON string
		if err := rows.Scan(&res.Symbol, &res.CycleTime, &res.StateBefore, &res.SelectedAction,
			&selectedTrigger, &inputsJSON, &discardsJSON); err != nil {
			return nil, fmt.Errorf("%w: failed to scan decision row: %v", ports.ErrQueryFailed, err)
		}

		var inputs []mandateRecord
		if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
			return nil, fmt.Errorf("failed to decode input mandates: %w", err)
		}
		for _, rec := range inputs {
			m := fromMandateRecord(rec)
			res.InputMandates = append(res.InputMandates, m)
			if selectedTrigger != "" && rec.TriggerID == selectedTrigger {
				selected := m
				res.Selected = &selected
			}
		}

		var discards []discardRecord
		if err := json.Unmarshal([]byte(discardsJSON), &discards); err != nil {
			return nil, fmt.Errorf("failed to decode discarded mandates: %w", err)
		}
		for _, rec := range discards {
			res.Discarded = append(res.Discarded, domain.DiscardedMandate{
				Mandate: fromMandateRecord(rec.mandateRecord),
				Reason:  domain.DiscardReason(rec.Reason),
				Detail:  rec.Detail,
			})
		}

		results = append(results, &res)
	}
	return results, rows.Err()
}
