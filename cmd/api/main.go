package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hospital-ai-scheduler/internal/api/router"
	appconfig "github.com/wolfman30/hospital-ai-scheduler/internal/config"
	"github.com/wolfman30/hospital-ai-scheduler/internal/decisions"
	"github.com/wolfman30/hospital-ai-scheduler/internal/http/handlers"
	"github.com/wolfman30/hospital-ai-scheduler/internal/ml"
	"github.com/wolfman30/hospital-ai-scheduler/internal/observability/metrics"
	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/internal/scheduler"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/internal/snapshots"
	"github.com/wolfman30/hospital-ai-scheduler/internal/waitlist"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

func main() {
	// Load .env in development; missing file is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospital-ai-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Core components
	assessor := risk.NewAssessor(
		risk.WithThresholds(cfg.RiskLowThreshold, cfg.RiskMediumThreshold, cfg.RiskHighThreshold),
		risk.WithLogger(logger),
	)
	optimizer := slots.NewOptimizer(logger)
	manager := waitlist.NewManager(assessor, logger)
	predictor := buildPredictor(cfg, logger)

	// Decision audit store: Postgres when configured, in-memory otherwise.
	var audit decisions.Store = decisions.NewInMemoryStore()
	pool := connectPostgresPool(context.Background(), cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
		audit = decisions.NewPostgresStore(pool)
	}

	metricsHandler, schedMetrics := setupSchedulingMetrics()

	schedOpts := []scheduler.Option{
		scheduler.WithAudit(audit),
		scheduler.WithMetrics(schedMetrics),
		scheduler.WithLogger(logger),
		scheduler.WithConfig(scheduler.Config{
			AutoOptimizeSchedule: cfg.AutoOptimizeSchedule,
			WaitlistAutoFill:     cfg.WaitlistAutoFill,
			MaxWaitlistSize:      cfg.MaxWaitlistSize,
			ContactRetryAttempts: cfg.ContactRetryAttempts,
		}),
	}

	// Snapshot persistence is optional and keyed off Redis being configured.
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		schedOpts = append(schedOpts, scheduler.WithSnapshots(snapshots.NewStore(redisClient, cfg.SnapshotHistoryLimit)))
		logger.Info("snapshot store enabled", "redis_addr", cfg.RedisAddr)
	}

	sched := scheduler.New(predictor, assessor, optimizer, manager, schedOpts...)

	// Handlers
	routerCfg := &router.Config{
		Logger:             logger,
		Scheduling:         handlers.NewSchedulingHandler(sched, audit, logger),
		Doctors:            handlers.NewDoctorsHandler(optimizer, logger),
		Waitlist:           handlers.NewWaitlistHandler(sched, manager, logger),
		System:             handlers.NewSystemHandler(sched, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildPredictor returns the HTTP model client when a server is configured,
// falling back to the local heuristic model for development.
func buildPredictor(cfg *appconfig.Config, logger *logging.Logger) ml.Predictor {
	if cfg.ModelServerURL != "" {
		logger.Info("using model server", "url", cfg.ModelServerURL)
		return ml.NewHTTPPredictor(cfg.ModelServerURL, cfg.ModelTimeout, logger)
	}
	logger.Warn("MODEL_SERVER_URL not set, using local heuristic predictor")
	return ml.NewLocalPredictor()
}

// connectPostgresPool returns nil when no DATABASE_URL is configured or the
// database is unreachable; the API degrades to in-memory decision audit.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres connected")
	return pool
}

// setupSchedulingMetrics builds a dedicated registry so tests can construct
// it repeatedly without duplicate registration panics.
func setupSchedulingMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schedMetrics := metrics.NewSchedulingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), schedMetrics
}
