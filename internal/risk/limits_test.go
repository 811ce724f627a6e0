package risk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLimitsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "limits.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing limits file: %v", err)
	}
	return path
}

func TestLoadLimits(t *testing.T) {
	path := writeLimitsFile(t, `
version: 1
max_position_size: 10
max_aggregate_exposure: 100000
max_correlated_exposure: 50000
max_leverage: 1.0
min_liquidation_buffer: 0.1
max_daily_loss: 500
max_weekly_loss: 1500
max_consecutive_losses: 3
`)
	l, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("LoadLimits() error = %v", err)
	}
	if l.Version != 1 {
		t.Errorf("Version = %d, want 1", l.Version)
	}
	if l.MaxPositionSize != 10 {
		t.Errorf("MaxPositionSize = %v, want 10", l.MaxPositionSize)
	}
	if l.MinLiquidationBuffer != 0.1 {
		t.Errorf("MinLiquidationBuffer = %v, want 0.1", l.MinLiquidationBuffer)
	}
	if l.MaxConsecutiveLosses != 3 {
		t.Errorf("MaxConsecutiveLosses = %v, want 3", l.MaxConsecutiveLosses)
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	if _, err := LoadLimits(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadLimits() with missing file should fail")
	}
}

func TestLoadLimitsBadYAML(t *testing.T) {
	path := writeLimitsFile(t, "version: [not, a, number")
	if _, err := LoadLimits(path); err == nil {
		t.Error("LoadLimits() with broken YAML should fail")
	}
}

func TestLoadLimitsRejectsInvalidValues(t *testing.T) {
	path := writeLimitsFile(t, `
version: 1
max_position_size: -5
max_aggregate_exposure: 100000
max_correlated_exposure: 50000
max_leverage: 1.0
min_liquidation_buffer: 0.1
max_daily_loss: 500
max_weekly_loss: 1500
max_consecutive_losses: 3
`)
	_, err := LoadLimits(path)
	if err == nil {
		t.Fatal("LoadLimits() with negative position size should fail")
	}
	if !strings.Contains(err.Error(), "max_position_size") {
		t.Errorf("error %q should name the offending field", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	err := Limits{}.Validate()
	if err == nil {
		t.Fatal("Validate() on zero limits should fail")
	}
	for _, field := range []string{
		"version",
		"max_position_size",
		"max_aggregate_exposure",
		"max_correlated_exposure",
		"max_leverage",
		"max_daily_loss",
		"max_consecutive_losses",
	} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s, got %q", field, err)
		}
	}
}

func TestValidateCrossFieldRules(t *testing.T) {
	l := Limits{
		Version:               1,
		MaxPositionSize:       10,
		MaxAggregateExposure:  10_000,
		MaxCorrelatedExposure: 20_000, // above the aggregate cap
		MaxLeverage:           1.0,
		MinLiquidationBuffer:  0.1,
		MaxDailyLoss:          500,
		MaxWeeklyLoss:         100, // below the daily cap
		MaxConsecutiveLosses:  3,
	}
	err := l.Validate()
	if err == nil {
		t.Fatal("Validate() should fail on cross-field violations")
	}
	if !strings.Contains(err.Error(), "max_correlated_exposure cannot exceed") {
		t.Errorf("error should flag correlated > aggregate, got %q", err)
	}
	if !strings.Contains(err.Error(), "max_weekly_loss cannot be below") {
		t.Errorf("error should flag weekly < daily, got %q", err)
	}
}

func TestValidateBufferRange(t *testing.T) {
	l := Limits{
		Version:               1,
		MaxPositionSize:       10,
		MaxAggregateExposure:  100_000,
		MaxCorrelatedExposure: 50_000,
		MaxLeverage:           1.0,
		MaxDailyLoss:          500,
		MaxWeeklyLoss:         1500,
		MaxConsecutiveLosses:  3,
	}

	l.MinLiquidationBuffer = 0
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() with zero buffer should pass, got %v", err)
	}
	l.MinLiquidationBuffer = 1
	if err := l.Validate(); err == nil {
		t.Error("Validate() with buffer of 1.0 should fail")
	}
	l.MinLiquidationBuffer = -0.1
	if err := l.Validate(); err == nil {
		t.Error("Validate() with negative buffer should fail")
	}
}
