// Package main provides the register relay service entry point. It consumes
// controlled drugs register entries from the event stream and persists them,
// deduplicating redeliveries through the idempotency inbox.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/internal/config"
	"github.com/afyapos/compliance/internal/infrastructure/redpanda"
	"github.com/afyapos/compliance/internal/register"
	"github.com/afyapos/compliance/pkg/idempotency"
	"github.com/afyapos/compliance/pkg/workerpool"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to database")

	store := register.NewStore(pool, logger)

	inbox := idempotency.New(pool, idempotency.DefaultConfig(), logger)
	if recovered, err := inbox.RecoverStaleEntries(ctx); err != nil {
		logger.Warn("stale entry recovery failed", zap.Error(err))
	} else if recovered > 0 {
		logger.Info("recovered stale inbox entries", zap.Int64("count", recovered))
	}
	inbox.StartCleanup()
	defer inbox.Stop()

	poolCfg := workerpool.DefaultConfig()
	workers, err := workerpool.New(poolCfg, func(ctx context.Context, task *workerpool.Task) error {
		return persistEntry(ctx, task, store, inbox)
	}, logger)
	if err != nil {
		logger.Fatal("worker pool creation failed", zap.Error(err))
	}
	workers.Start()
	defer workers.Stop()

	consumerCfg := redpanda.DefaultConsumerConfig()
	consumerCfg.Brokers = cfg.Kafka.Brokers
	consumerCfg.GroupID = cfg.Kafka.GroupID
	consumerCfg.Topics = []string{redpanda.TopicRegisterEntries}

	consumer, err := redpanda.NewConsumer(consumerCfg, func(ctx context.Context, msg *redpanda.Message) error {
		return workers.Submit(&workerpool.Task{
			ID:      fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset),
			Payload: msg.Value,
			Context: ctx,
		})
	}, logger)
	if err != nil {
		logger.Fatal("consumer creation failed", zap.Error(err))
	}

	consumer.Start()
	logger.Info("register relay started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group_id", cfg.Kafka.GroupID))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	consumer.Stop()
	logger.Info("register relay stopped")
}

func persistEntry(ctx context.Context, task *workerpool.Task, store *register.Store, inbox *idempotency.Inbox) error {
	payload, ok := task.Payload.([]byte)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", task.Payload)
	}

	var entry register.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return fmt.Errorf("unmarshal register entry: %w", err)
	}

	key := idempotency.GenerateKey(entry.OrderID, entry.ProductID, entry.LotID, entry.Date)
	return inbox.Process(ctx, key, "register-persist", payload, func(ctx context.Context, _ json.RawMessage) error {
		return store.Insert(ctx, &entry)
	})
}
