package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cryptoArbiterBot/config"
	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/kernel"
	"cryptoArbiterBot/internal/metrics"
	"cryptoArbiterBot/internal/ports"
)

// Engine drives the decision kernel: once per cycle it assembles a
// snapshot, collects proposals and evaluates each configured symbol, then
// routes the authorized action to the executor and writes the confirmed
// transition back to the position record.
//
// Symbols are independent: they evaluate in parallel with no ordering
// between them, and a symbol halting terminally does not touch the others.
// Within a symbol, the whole cycle runs under that symbol's lock so two
// cycles can never interleave position writes.
type Engine struct {
	cfg       *config.Config
	logger    ports.Logger
	snapshots ports.SnapshotProvider
	sources   []ports.MandateSource
	kern      *kernel.Kernel
	exec      ports.Executor
	posRepo   ports.PositionRepository
	journal   ports.DecisionJournal
	metrics   *metrics.Metrics

	mu        sync.Mutex // protects positions, halted and the lock map
	positions map[string]*domain.Position
	halted    map[string]bool
	symLocks  map[string]*sync.Mutex
}

// NewEngine creates the engine service instance.
func NewEngine(
	cfg *config.Config,
	logger ports.Logger,
	snapshots ports.SnapshotProvider,
	sources []ports.MandateSource,
	kern *kernel.Kernel,
	exec ports.Executor,
	posRepo ports.PositionRepository,
	journal ports.DecisionJournal,
	mets *metrics.Metrics,
) (*Engine, error) {
	if cfg == nil || logger == nil || snapshots == nil || kern == nil || exec == nil || posRepo == nil || journal == nil || mets == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("configuration must list at least one symbol")
	}
	if cfg.OrderQuantity <= 0 {
		return nil, fmt.Errorf("configuration OrderQuantity must be positive")
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		snapshots: snapshots,
		sources:   sources,
		kern:      kern,
		exec:      exec,
		posRepo:   posRepo,
		journal:   journal,
		metrics:   mets,
		positions: make(map[string]*domain.Position, len(cfg.Symbols)),
		halted:    make(map[string]bool, len(cfg.Symbols)),
		symLocks:  make(map[string]*sync.Mutex, len(cfg.Symbols)),
	}, nil
}

// Start loads position state and runs evaluation cycles until the context
// is canceled, a shutdown signal arrives, every symbol has halted, or a
// cycle fails hard (an illegal transition aborts the engine, never gets
// papered over).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "Starting decision engine...", map[string]interface{}{
		"symbols":       e.cfg.Symbols,
		"cycleInterval": e.cfg.CycleInterval.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		e.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	if err := e.loadPositions(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "Decision engine stopped")
			return nil
		case <-ticker.C:
			if err := e.runCycle(ctx); err != nil {
				e.logger.Error(ctx, err, "Cycle failed hard, stopping engine")
				return err
			}
			if e.allHalted() {
				err := fmt.Errorf("%w: all symbols halted", ports.ErrUpstreamHalted)
				e.logger.Error(ctx, err, "No evaluable symbols remain")
				return err
			}
		}
	}
}

// loadPositions restores the per-symbol records, creating FLAT ones for
// symbols seen for the first time.
func (e *Engine) loadPositions(ctx context.Context) error {
	for _, symbol := range e.cfg.Symbols {
		pos, err := e.posRepo.GetBySymbol(ctx, symbol)
		if err != nil {
			return fmt.Errorf("failed to load position for %s: %w", symbol, err)
		}
		if pos == nil {
			pos = domain.NewPosition(symbol)
			pos.UpdatedAt = time.Now().UTC()
			if err := e.posRepo.Upsert(ctx, pos); err != nil {
				return fmt.Errorf("failed to create position record for %s: %w", symbol, err)
			}
		}
		e.positions[symbol] = pos
		e.symLocks[symbol] = &sync.Mutex{}
		e.logger.Info(ctx, "Position state loaded", map[string]interface{}{
			"symbol":    symbol,
			"state":     pos.State,
			"direction": pos.Direction,
			"quantity":  pos.Quantity,
		})
	}
	return nil
}

// runCycle evaluates every live symbol concurrently. Symbol evaluations
// share nothing; the first hard failure wins and aborts the engine.
func (e *Engine) runCycle(ctx context.Context) error {
	symbols := e.liveSymbols()
	errCh := make(chan error, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := e.evaluateSymbol(ctx, symbol); err != nil {
				errCh <- err
			}
		}(symbol)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// evaluateSymbol runs one full cycle for one symbol under its lock:
// snapshot, proposals, kernel evaluation, journaling, then execution and
// the single position write.
func (e *Engine) evaluateSymbol(ctx context.Context, symbol string) error {
	lock := e.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	if e.isHalted(symbol) {
		return nil
	}
	pos := e.positionFor(symbol)

	snap, err := e.snapshots.Snapshot(ctx, symbol)
	if err != nil {
		// A snapshot the observation layer cannot vouch for is a halt:
		// terminal for the symbol, never substituted with cached data.
		e.haltSymbol(ctx, symbol, err)
		return nil
	}

	var proposed []domain.Mandate
	for _, source := range e.sources {
		proposed = append(proposed, source.Propose(ctx, snap, pos)...)
	}

	res, err := e.kern.Evaluate(ctx, snap, *pos, proposed)
	if errors.Is(err, ports.ErrUpstreamHalted) {
		e.haltSymbol(ctx, symbol, err)
		return nil
	}
	if err != nil {
		return err
	}

	if jerr := e.journal.Append(ctx, res); jerr != nil {
		// The result was still emitted to the caller and the logs; a
		// journal write failure must not stop the engine.
		e.logger.Error(ctx, jerr, "Failed to journal arbitration result", map[string]interface{}{"symbol": symbol})
	}
	e.metrics.ObserveResult(res)
	e.metrics.ObserveExposure(snap.AggregateExposure)

	e.logger.Info(ctx, "Cycle arbitrated", map[string]interface{}{
		"symbol":    symbol,
		"state":     res.StateBefore,
		"action":    res.SelectedAction,
		"proposed":  len(res.InputMandates),
		"discarded": len(res.Discarded),
	})

	if res.SelectedAction == domain.NoAction {
		return nil
	}

	if err := e.executeAction(ctx, res, snap, pos); err != nil {
		return err
	}

	pos.UpdatedAt = snap.Time
	if err := e.posRepo.Upsert(ctx, pos); err != nil {
		return fmt.Errorf("failed to persist position for %s: %w", symbol, err)
	}
	e.metrics.ObservePosition(pos)
	return nil
}

// executeAction submits the authorized action and applies the resulting
// lifecycle edges. A failed or unconfirmed submission leaves the position
// in its transient state (ENTERING/REDUCING/CLOSING): there is no rollback,
// the next cycle re-evaluates from there.
func (e *Engine) executeAction(ctx context.Context, res *domain.ArbitrationResult, snap *domain.Snapshot, pos *domain.Position) error {
	switch res.SelectedAction {
	case domain.ActionEntry:
		if err := pos.BeginEntry(res.Selected.Direction); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}
		report, err := e.submit(ctx, pos, snap, domain.ActionEntry, e.cfg.OrderQuantity)
		if err != nil || !report.Confirmed {
			e.logUnconfirmed(ctx, pos, domain.ActionEntry, err)
			return nil
		}
		if err := pos.ConfirmEntry(report.FilledQty); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}

	case domain.ActionReduce:
		qty := e.reduceQuantity(pos)
		if err := pos.BeginReduce(); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}
		report, err := e.submit(ctx, pos, snap, domain.ActionReduce, qty)
		if err != nil || !report.Confirmed {
			e.logUnconfirmed(ctx, pos, domain.ActionReduce, err)
			return nil
		}
		if err := pos.ConfirmReduce(pos.Quantity - report.FilledQty); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}

	case domain.ActionExit:
		unfilled := pos.State == domain.StateEntering && pos.Quantity == 0
		if err := pos.BeginClose(); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}
		if !unfilled {
			report, err := e.submit(ctx, pos, snap, domain.ActionExit, pos.Quantity)
			if err != nil || !report.Confirmed {
				e.logUnconfirmed(ctx, pos, domain.ActionExit, err)
				return nil
			}
		}
		// An abandoned, never-filled entry has nothing at the venue; the
		// close confirms locally.
		if err := pos.ConfirmClose(); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIllegalTransition, err)
		}

	default:
		return fmt.Errorf("%w: action %q cannot be executed", ports.ErrIllegalTransition, res.SelectedAction)
	}
	return nil
}

// reduceQuantity sizes a reduction. A reduce never flattens the position —
// flattening travels the EXIT path — so when the standing order size would
// consume the whole position, half of it is trimmed instead.
func (e *Engine) reduceQuantity(pos *domain.Position) float64 {
	if e.cfg.OrderQuantity < pos.Quantity {
		return e.cfg.OrderQuantity
	}
	return pos.Quantity / 2
}

func (e *Engine) submit(ctx context.Context, pos *domain.Position, snap *domain.Snapshot, action domain.Action, qty float64) (*ports.ExecutionReport, error) {
	return e.exec.Submit(ctx, ports.ActionRequest{
		Symbol:    pos.Symbol,
		Action:    action,
		Direction: pos.Direction,
		Quantity:  qty,
		RefPrice:  snap.MarkPrice,
	})
}

func (e *Engine) logUnconfirmed(ctx context.Context, pos *domain.Position, action domain.Action, err error) {
	e.logger.Warn(ctx, "Action not confirmed, position stays in transient state", map[string]interface{}{
		"symbol": pos.Symbol,
		"action": action,
		"state":  pos.State,
		"error":  fmt.Sprintf("%v", err),
	})
}

// haltSymbol terminally removes a symbol from scheduling. Halts are never
// retried or downgraded; restarting the engine is the only way back.
func (e *Engine) haltSymbol(ctx context.Context, symbol string, cause error) {
	e.mu.Lock()
	e.halted[symbol] = true
	e.mu.Unlock()
	e.metrics.ObserveHalt(symbol)
	e.logger.Error(ctx, cause, "Symbol halted terminally", map[string]interface{}{"symbol": symbol})
}

func (e *Engine) liveSymbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var live []string
	for _, symbol := range e.cfg.Symbols {
		if !e.halted[symbol] {
			live = append(live, symbol)
		}
	}
	return live
}

func (e *Engine) allHalted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, symbol := range e.cfg.Symbols {
		if !e.halted[symbol] {
			return false
		}
	}
	return true
}

func (e *Engine) isHalted(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted[symbol]
}

func (e *Engine) lockFor(symbol string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.symLocks[symbol]; !ok {
		e.symLocks[symbol] = &sync.Mutex{}
	}
	return e.symLocks[symbol]
}

func (e *Engine) positionFor(symbol string) *domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[symbol]
}
