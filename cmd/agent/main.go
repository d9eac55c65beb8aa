package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmore/finance-agent-go/internal/config"
	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/handler"
	"github.com/tmore/finance-agent-go/internal/infra/cache"
	"github.com/tmore/finance-agent-go/internal/infra/client"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/infra/resilience"
	"github.com/tmore/finance-agent-go/internal/ledger"
	"github.com/tmore/finance-agent-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("groq_model", cfg.GroqModel),
		zap.Duration("agent_timeout", cfg.AgentTimeout),
		zap.Duration("intent_cache_ttl", cfg.IntentCacheTTL),
	)
	if cfg.GroqAPIKey == "" {
		logger.Warn("GROQ_API_KEY is empty, chat requests will fail")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finance-agent")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	intentCache := cache.New[*domain.Intent](cfg.IntentCacheTTL)

	// --- Resilience ---
	cb := resilience.NewCircuitBreaker("groq")

	// --- Intent resolver ---
	httpClient := &http.Client{Timeout: cfg.AgentTimeout}
	resolver := client.NewGroqResolver(
		httpClient,
		cfg.GroqAPIURL,
		cfg.GroqAPIKey,
		cfg.GroqModel,
		cfg.AgentTimeout,
		cb,
		metrics,
	)

	// --- Services ---
	store := ledger.NewStore()
	ledgerSvc := service.NewLedger(store, metrics, logger)
	dispatcher := service.NewDispatcher(resolver, ledgerSvc, intentCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(ledgerSvc, dispatcher, metrics, logger, cfg.CORSAllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Lifecycle ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
