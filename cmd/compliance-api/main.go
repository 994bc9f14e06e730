// Package main provides the compliance API service entry point: the
// POS-facing HTTP surface plus the outbox processor that streams register
// entries out of Postgres.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/internal/api/handlers"
	"github.com/afyapos/compliance/internal/api/middleware"
	"github.com/afyapos/compliance/internal/config"
	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/infrastructure/postgres"
	"github.com/afyapos/compliance/internal/infrastructure/redpanda"
	"github.com/afyapos/compliance/internal/observability/metrics"
	"github.com/afyapos/compliance/internal/observability/tracing"
	"github.com/afyapos/compliance/internal/verification"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	tracingCfg := tracing.DefaultConfig("compliance-api")
	tracingCfg.Environment = cfg.Env
	tracingCfg.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingCfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := tracing.Init(ctx, tracingCfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("database ping failed", zap.Error(err))
	}
	logger.Info("connected to database")

	producerCfg := redpanda.DefaultProducerConfig()
	producerCfg.Brokers = cfg.Kafka.Brokers
	producer, err := redpanda.NewProducer(producerCfg, logger)
	if err != nil {
		logger.Fatal("producer creation failed", zap.Error(err))
	}
	defer producer.Close()

	admin, err := redpanda.NewAdmin(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Fatal("admin client creation failed", zap.Error(err))
	}
	if err := admin.EnsureTopics(ctx); err != nil {
		logger.Fatal("topic creation failed", zap.Error(err))
	}
	admin.Close()

	outbox := postgres.NewOutbox(pool, producer, postgres.DefaultOutboxConfig(), logger)
	outbox.Start()
	defer outbox.Stop()

	gatewayCfg := verification.Config{
		BaseURL:        cfg.Verification.BaseURL,
		APIKey:         cfg.Verification.APIKey,
		RequestTimeout: cfg.Verification.RequestTimeout,
	}
	gateway, err := verification.New(gatewayCfg, logger)
	if err != nil {
		logger.Fatal("verification gateway creation failed", zap.Error(err))
	}

	m := metrics.New()
	lotStore := postgres.NewLotStore(pool, logger)
	rxRepo := prescription.NewRepository(pool, logger)
	finalizeStore := postgres.NewFinalizeStore(pool, logger)

	complianceHandler := handlers.NewComplianceHandler(lotStore, rxRepo, finalizeStore, gateway, m, logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing("compliance-api"))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TerminalAuth(cfg.Http.APIKeys, logger))
		r.Mount("/", complianceHandler.Routes())
	})

	server := &http.Server{
		Addr:         cfg.Http.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting compliance API", zap.String("addr", cfg.Http.Addr()))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":"compliance-api","version":"1.0.0"}`)
}
