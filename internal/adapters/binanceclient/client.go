package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/ports"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	realizedPnLIncome = "REALIZED_PNL"
)

// Client adapts Binance USD-M futures into the engine's two venue-facing
// ports: it assembles the per-symbol fact snapshot the kernel consumes
// (ports.SnapshotProvider) and submits authorized actions as market orders
// (ports.Executor). Any failure while assembling a snapshot surfaces as an
// error so the engine treats the symbol as halted rather than evaluating
// against partial data.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	limiter       *rate.Limiter
	quoteAsset    string
	buckets       map[string]string
}

// Config holds configuration specific to the Binance adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger

	// QuoteAsset is the margin asset balances are read in (e.g., "USDT").
	QuoteAsset string

	// Buckets maps a symbol to its correlated-risk bucket. Symbols that do
	// not appear share one default bucket.
	Buckets map[string]string

	// RequestsPerSecond caps outgoing REST calls. Defaults to 5.
	RequestsPerSecond float64
}

// New creates a new Binance adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}
	quoteAsset := cfg.QuoteAsset
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		limiter:       rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps))),
		quoteAsset:    quoteAsset,
		buckets:       cfg.Buckets,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		var mappedErr error
		switch apiErr.Code {
		case -1003:
			mappedErr = ports.ErrRateLimited
		case -1021:
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015:
			mappedErr = ports.ErrAuthenticationFailed
		case -2010, -2022:
			mappedErr = ports.ErrOrderPlacementFailed
		case -2019, -3005, -3041:
			mappedErr = ports.ErrInsufficientFunds
		case -4003, -4014, -4015:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, operation+" failed with API error", fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	c.logger.Error(ctx, err, operation+" failed", fields)
	return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchangeUnavailable, err)
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) bucketFor(symbol string) string {
	if b, ok := c.buckets[symbol]; ok {
		return b
	}
	return "default"
}

// --- ports.SnapshotProvider ---

// Snapshot assembles this cycle's fact record for one symbol: mark price,
// margin balance, account-wide and bucket exposure, liquidation level,
// unrealized return, and rolling realized-loss facts.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*domain.Snapshot, error) {
	now := time.Now().UTC()

	mark, err := c.markPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	balance, err := c.accountBalance(ctx)
	if err != nil {
		return nil, err
	}
	risks, err := c.positionRisks(ctx)
	if err != nil {
		return nil, err
	}
	daily, weekly, streak, err := c.realizedLosses(ctx, symbol, now)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{
		Symbol:            symbol,
		Status:            domain.SnapshotUsable,
		Time:              now,
		MarkPrice:         mark,
		AccountBalance:    balance,
		DailyRealizedPnL:  daily,
		WeeklyRealizedPnL: weekly,
		ConsecutiveLosses: streak,
	}

	bucket := c.bucketFor(symbol)
	for _, r := range risks {
		amt, err := strconv.ParseFloat(r.PositionAmt, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse position amount '%s': %w", r.PositionAmt, err), "Snapshot")
		}
		if amt == 0 {
			continue
		}
		rMark, err := strconv.ParseFloat(r.MarkPrice, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse mark price '%s': %w", r.MarkPrice, err), "Snapshot")
		}
		notional := math.Abs(amt) * rMark
		snap.AggregateExposure += notional
		if c.bucketFor(r.Symbol) == bucket {
			snap.CorrelatedExposure += notional
		}
		if r.Symbol != symbol {
			continue
		}
		liq, err := strconv.ParseFloat(r.LiquidationPrice, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse liquidation price '%s': %w", r.LiquidationPrice, err), "Snapshot")
		}
		snap.LiquidationPrice = liq
		entry, err := strconv.ParseFloat(r.EntryPrice, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse entry price '%s': %w", r.EntryPrice, err), "Snapshot")
		}
		unrealized, err := strconv.ParseFloat(r.UnRealizedProfit, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse unrealized profit '%s': %w", r.UnRealizedProfit, err), "Snapshot")
		}
		if entryNotional := math.Abs(amt) * entry; entryNotional > 0 {
			snap.UnrealizedPnLPct = unrealized / entryNotional
		}
	}

	return snap, nil
}

func (c *Client) markPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetMarkPrice"
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	tickers, err := c.futuresClient.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		return 0, c.handleError(ctx, fmt.Errorf("no price data returned for symbol %s", symbol), op)
	}
	price, err := strconv.ParseFloat(tickers[0].MarkPrice, 64)
	if err != nil {
		return 0, c.handleError(ctx, fmt.Errorf("could not parse price '%s': %w", tickers[0].MarkPrice, err), op)
	}
	return price, nil
}

func (c *Client) accountBalance(ctx context.Context) (float64, error) {
	op := "GetAccountBalance"
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	for _, bal := range account.Assets {
		if bal.Asset == c.quoteAsset {
			balance, err := strconv.ParseFloat(bal.WalletBalance, 64)
			if err != nil {
				return 0, c.handleError(ctx, fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.WalletBalance, c.quoteAsset, err), op)
			}
			return balance, nil
		}
	}
	return 0, c.handleError(ctx, fmt.Errorf("asset %s not found in account balance", c.quoteAsset), op)
}

func (c *Client) positionRisks(ctx context.Context) ([]*futures.PositionRisk, error) {
	op := "GetPositionRisk"
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	positions, err := c.futuresClient.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return positions, nil
}

// realizedLosses sums realized PnL over rolling 24h/7d windows and counts
// the current run of consecutive losing fills for the symbol.
func (c *Client) realizedLosses(ctx context.Context, symbol string, now time.Time) (daily, weekly float64, streak int, err error) {
	op := "GetIncomeHistory"
	if err := c.wait(ctx); err != nil {
		return 0, 0, 0, err
	}
	incomes, err := c.futuresClient.NewGetIncomeHistoryService().
		Symbol(symbol).
		IncomeType(realizedPnLIncome).
		StartTime(now.AddDate(0, 0, -7).UnixMilli()).
		Limit(1000).
		Do(ctx)
	if err != nil {
		return 0, 0, 0, c.handleError(ctx, err, op)
	}

	dayStart := now.Add(-24 * time.Hour).UnixMilli()
	streakDone := false
	for i := len(incomes) - 1; i >= 0; i-- {
		inc := incomes[i]
		amount, perr := strconv.ParseFloat(inc.Income, 64)
		if perr != nil {
			return 0, 0, 0, c.handleError(ctx, fmt.Errorf("could not parse income '%s': %w", inc.Income, perr), op)
		}
		weekly += amount
		if inc.Time >= dayStart {
			daily += amount
		}
		// incomes arrive oldest first; walk backwards for the streak.
		if !streakDone {
			if amount < 0 {
				streak++
			} else {
				streakDone = true
			}
		}
	}
	return daily, weekly, streak, nil
}

// --- ports.Executor ---

// Submit places the authorized action as a market order. REDUCE and EXIT
// are submitted reduce-only so a fill can never grow the position.
func (c *Client) Submit(ctx context.Context, req ports.ActionRequest) (*ports.ExecutionReport, error) {
	op := "SubmitAction"
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %v", ports.ErrInvalidRequest, req.Quantity)
	}

	var side domain.OrderSide
	reduceOnly := false
	switch req.Action {
	case domain.ActionEntry:
		side = req.Direction.EntrySide()
	case domain.ActionReduce, domain.ActionExit:
		side = req.Direction.CloseSide()
		reduceOnly = true
	default:
		return nil, fmt.Errorf("%w: action %q is not executable", ports.ErrInvalidRequest, req.Action)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	clientOrderID := uuid.NewString()
	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(strconv.FormatFloat(req.Quantity, 'f', -1, 64)).
		ReduceOnly(reduceOnly).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	filled, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)
	report := &ports.ExecutionReport{
		OrderID:     strconv.FormatInt(order.OrderID, 10),
		Symbol:      req.Symbol,
		Confirmed:   order.Status == futures.OrderStatusTypeFilled && filled > 0,
		FilledQty:   filled,
		AvgPrice:    avgPrice,
		SubmittedAt: time.UnixMilli(order.UpdateTime),
	}
	c.logger.Info(ctx, op+" placed", map[string]interface{}{
		"symbol":   req.Symbol,
		"action":   req.Action,
		"side":     side,
		"quantity": req.Quantity,
		"orderID":  report.OrderID,
		"status":   order.Status,
	})
	return report, nil
}
