package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"

	"cryptoArbiterBot/config"
	"cryptoArbiterBot/internal/adapters/binanceclient"
	"cryptoArbiterBot/internal/adapters/logger"
	"cryptoArbiterBot/internal/adapters/paperexec"
	"cryptoArbiterBot/internal/adapters/sqlite"
	"cryptoArbiterBot/internal/app"
	"cryptoArbiterBot/internal/domain"
	"cryptoArbiterBot/internal/kernel"
	"cryptoArbiterBot/internal/metrics"
	"cryptoArbiterBot/internal/ports"
	"cryptoArbiterBot/internal/risk"
	"cryptoArbiterBot/internal/rules"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewSlogLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Load Risk Limits and build the kernel
	limits, err := risk.LoadLimits(cfg.RiskLimitsPath)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to load risk limits")
		log.Fatalf("FATAL: Failed to load risk limits: %v", err)
	}
	appLogger.Info(context.Background(), "Risk limits loaded", map[string]interface{}{
		"path":    cfg.RiskLimitsPath,
		"version": limits.Version,
	})

	gate, err := risk.NewGate(limits, cfg.OrderQuantity)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to build risk gate")
		log.Fatalf("FATAL: Failed to build risk gate: %v", err)
	}
	kern, err := kernel.New(gate)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to build kernel")
		log.Fatalf("FATAL: Failed to build kernel: %v", err)
	}

	// 4. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 5. Initialize Exchange Client (observation side; execution too in live mode)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:            cfg.APIKey,
		SecretKey:         cfg.SecretKey,
		UseTestnet:        cfg.IsTestnet,
		Logger:            appLogger,
		QuoteAsset:        cfg.QuoteAsset,
		Buckets:           cfg.Buckets,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	var executor ports.Executor = binanceClient
	if cfg.PaperTrading {
		executor, err = paperexec.New(appLogger, cfg.PaperSlippage)
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize paper executor")
			log.Fatalf("FATAL: Failed to initialize paper executor: %v", err)
		}
		appLogger.Info(context.Background(), "Paper trading enabled: actions are simulated")
	}

	// 6. Initialize Mandate Sources (the proposal layer)
	var sources []ports.MandateSource

	if cfg.TargetDirection != "NONE" {
		entry, err := rules.NewTargetEntry(domain.Direction(cfg.TargetDirection))
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize target entry rule")
			log.Fatalf("FATAL: Failed to initialize target entry rule: %v", err)
		}
		sources = append(sources, entry)
	}

	stopOut, err := rules.NewStopOut(cfg.StopOutPct)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize stop-out rule")
		log.Fatalf("FATAL: Failed to initialize stop-out rule: %v", err)
	}
	deleverage, err := rules.NewDeleverage(cfg.DeleverageFraction)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize deleverage rule")
		log.Fatalf("FATAL: Failed to initialize deleverage rule: %v", err)
	}
	breaker, err := rules.NewCircuitBreaker(limits)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize circuit breaker rule")
		log.Fatalf("FATAL: Failed to initialize circuit breaker rule: %v", err)
	}
	sources = append(sources, stopOut, deleverage, breaker)

	// 7. Start metrics endpoint
	mets := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", mets.Handler())
	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			appLogger.Error(context.Background(), err, "Metrics endpoint stopped", map[string]interface{}{"addr": cfg.MetricsAddr})
		}
	}()
	appLogger.Info(context.Background(), "Metrics endpoint started", map[string]interface{}{"addr": cfg.MetricsAddr})

	// 8. Initialize and start the Engine
	engine, err := app.NewEngine(cfg, appLogger, binanceClient, sources, kern, executor, repo, repo, mets)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize engine")
		log.Fatalf("FATAL: Failed to initialize engine: %v", err)
	}

	if err := engine.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Engine exited with error")
		log.Fatalf("FATAL: Engine exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
