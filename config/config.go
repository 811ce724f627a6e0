package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoArbiterBot/internal/adapters/logger" // Import the logger package for ParseLevel
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Engine Parameters
	Symbols       []string      // Symbols evaluated independently each cycle
	CycleInterval time.Duration // Time between evaluation cycles
	OrderQuantity float64       // Fixed per-order size, also used for exposure projection

	// Rule Parameters
	TargetDirection    string  // LONG, SHORT or NONE (no entry rule)
	StopOutPct         float64 // Adverse move that proposes a full exit (e.g., 0.02 for 2%)
	DeleverageFraction float64 // Balance fraction above which a reduce is proposed

	// Risk
	RiskLimitsPath string // Path to the versioned risk limits YAML file

	// Execution
	PaperTrading  bool    // Route actions to the simulated executor
	PaperSlippage float64 // Simulated slippage fraction in paper mode

	// Database
	DBPath string

	// Observability
	LogLevel    slog.Level
	MetricsAddr string

	// Connection Settings
	QuoteAsset        string
	RequestsPerSecond float64
	Buckets           map[string]string // symbol -> correlated-risk bucket
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Engine Parameters
	cfg.Symbols = splitList(getEnv("SYMBOLS", "ETHUSDT"))
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}
	if dup := firstDuplicate(cfg.Symbols); dup != "" {
		errs = append(errs, fmt.Sprintf("SYMBOLS lists %s more than once", dup))
	}

	cycleSeconds, err := getEnvAsIntRequired("CYCLE_INTERVAL_SECONDS", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CYCLE_INTERVAL_SECONDS: %v", err))
	} else if cycleSeconds <= 0 {
		errs = append(errs, "CYCLE_INTERVAL_SECONDS must be positive")
	}
	cfg.CycleInterval = time.Duration(cycleSeconds) * time.Second

	cfg.OrderQuantity, err = getEnvAsFloatRequired("ORDER_QUANTITY", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ORDER_QUANTITY: %v", err))
	} else if cfg.OrderQuantity <= 0 {
		errs = append(errs, "ORDER_QUANTITY must be positive")
	}

	// Rule Parameters
	cfg.TargetDirection = strings.ToUpper(getEnv("TARGET_DIRECTION", "NONE"))
	switch cfg.TargetDirection {
	case "LONG", "SHORT", "NONE":
	default:
		errs = append(errs, "TARGET_DIRECTION must be LONG, SHORT or NONE")
	}

	cfg.StopOutPct, err = getEnvAsFloatRequired("STOP_OUT_PCT", 0.02)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_OUT_PCT: %v", err))
	} else if cfg.StopOutPct <= 0 || cfg.StopOutPct >= 1.0 {
		errs = append(errs, "STOP_OUT_PCT must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.DeleverageFraction, err = getEnvAsFloatRequired("DELEVERAGE_FRACTION", 0.5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DELEVERAGE_FRACTION: %v", err))
	} else if cfg.DeleverageFraction <= 0 {
		errs = append(errs, "DELEVERAGE_FRACTION must be positive")
	}

	// Risk
	cfg.RiskLimitsPath = getEnv("RISK_LIMITS_PATH", "./config/limits.yaml")
	if cfg.RiskLimitsPath == "" {
		errs = append(errs, "RISK_LIMITS_PATH must be set")
	}

	// Execution
	cfg.PaperTrading = getEnvAsBool("PAPER_TRADING", true)
	cfg.PaperSlippage, err = getEnvAsFloatRequired("PAPER_SLIPPAGE", 0.0005)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PAPER_SLIPPAGE: %v", err))
	} else if cfg.PaperSlippage < 0 || cfg.PaperSlippage >= 1.0 {
		errs = append(errs, "PAPER_SLIPPAGE must be in [0.0, 1.0)")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/arbiter.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Observability
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9100")

	// Connection Settings
	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")
	cfg.RequestsPerSecond = getEnvAsFloat("REQUESTS_PER_SECOND", 5)
	if cfg.RequestsPerSecond <= 0 {
		errs = append(errs, "REQUESTS_PER_SECOND must be positive")
	}

	cfg.Buckets, err = parseBuckets(getEnv("RISK_BUCKETS", ""))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_BUCKETS: %v", err))
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstDuplicate(items []string) string {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			return item
		}
		seen[item] = true
	}
	return ""
}

// parseBuckets parses "SYMBOL:bucket,SYMBOL:bucket" pairs.
func parseBuckets(s string) (map[string]string, error) {
	buckets := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return buckets, nil
	}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("expected SYMBOL:bucket, got %q", pair)
		}
		buckets[parts[0]] = parts[1]
	}
	return buckets, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
