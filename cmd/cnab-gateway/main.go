package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/config"
	"github.com/lotefacil/cnab-gateway/internal/handler"
	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/infra/resilience"
	"github.com/lotefacil/cnab-gateway/internal/infra/sqlite"
	"github.com/lotefacil/cnab-gateway/internal/infra/supabase"
	"github.com/lotefacil/cnab-gateway/internal/port"
	"github.com/lotefacil/cnab-gateway/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Bool("webhook_secret_configured", cfg.PixWebhookSecret != ""),
		zap.Bool("cnab_truncate", cfg.CNABTruncate),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("dedupe_ttl", cfg.DedupeTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cnab-gateway")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("ledger-store")

	// --- Ledger store ---
	var store port.LedgerStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as ledger store",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		store = supabase.NewLedgerStore(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Info("using local SQLite as ledger store",
			zap.String("path", cfg.SQLitePath),
		)
		db, err := sqlite.InitDB(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite ledger", zap.Error(err))
		}
		defer db.Close()
		store = sqlite.NewLedgerStore(db)
	}

	// --- CNAB encoder ---
	policy := cnab.OverflowReject
	if cfg.CNABTruncate {
		policy = cnab.OverflowTruncate
	}
	encoder := cnab.NewEncoder(policy)

	// --- Services ---
	ingestSvc := service.NewIngestService(store, metrics, logger)
	webhookSvc := service.NewWebhookService(cfg.PixWebhookSecret, cfg.DedupeTTL, store, metrics, logger)
	if cfg.PixWebhookSecret == "" {
		logger.Warn("PIX_WEBHOOK_SECRET not set: webhook requests will be rejected with 500")
	}

	// --- Router ---
	router := handler.NewRouter(encoder, ingestSvc, webhookSvc, store, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
