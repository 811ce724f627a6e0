package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Limits is the static risk configuration. It is versioned, loaded once at
// startup, and passed into the gate as plain data: the kernel never mutates
// or learns it.
type Limits struct {
	Version int `yaml:"version"`

	// Exposure limits checked by the gate on every ENTRY/REDUCE candidate.
	MaxPositionSize       float64 `yaml:"max_position_size"`       // base-asset quantity cap per position
	MaxAggregateExposure  float64 `yaml:"max_aggregate_exposure"`  // quote notional cap across the account
	MaxCorrelatedExposure float64 `yaml:"max_correlated_exposure"` // quote notional cap per risk bucket
	MaxLeverage           float64 `yaml:"max_leverage"`            // projected exposure / balance ceiling, nominally 1
	MinLiquidationBuffer  float64 `yaml:"min_liquidation_buffer"`  // minimum |mark-liq|/mark after execution

	// Loss limits consumed by the circuit-breaker rule layer.
	MaxDailyLoss         float64 `yaml:"max_daily_loss"`  // quote currency, positive number
	MaxWeeklyLoss        float64 `yaml:"max_weekly_loss"` // quote currency, positive number
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
}

// LoadLimits reads and validates a limits file.
func LoadLimits(path string) (Limits, error) {
	var l Limits
	data, err := os.ReadFile(path)
	if err != nil {
		return l, fmt.Errorf("failed to read risk limits file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("failed to parse risk limits file '%s': %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("risk limits file '%s': %w", path, err)
	}
	return l, nil
}

// Validate checks the limits for internal consistency.
func (l Limits) Validate() error {
	var errs []string

	if l.Version <= 0 {
		errs = append(errs, "version must be a positive integer")
	}
	if l.MaxPositionSize <= 0 {
		errs = append(errs, "max_position_size must be positive")
	}
	if l.MaxAggregateExposure <= 0 {
		errs = append(errs, "max_aggregate_exposure must be positive")
	}
	if l.MaxCorrelatedExposure <= 0 {
		errs = append(errs, "max_correlated_exposure must be positive")
	}
	if l.MaxCorrelatedExposure > l.MaxAggregateExposure {
		errs = append(errs, "max_correlated_exposure cannot exceed max_aggregate_exposure")
	}
	if l.MaxLeverage <= 0 {
		errs = append(errs, "max_leverage must be positive")
	}
	if l.MinLiquidationBuffer < 0 || l.MinLiquidationBuffer >= 1 {
		errs = append(errs, "min_liquidation_buffer must be in [0.0, 1.0)")
	}
	if l.MaxDailyLoss <= 0 {
		errs = append(errs, "max_daily_loss must be positive")
	}
	if l.MaxWeeklyLoss < l.MaxDailyLoss {
		errs = append(errs, "max_weekly_loss cannot be below max_daily_loss")
	}
	if l.MaxConsecutiveLosses <= 0 {
		errs = append(errs, "max_consecutive_losses must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("risk limits validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
