package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/infrastructure/redpanda"
	"github.com/afyapos/compliance/internal/register"
)

// FinalizeStore persists the post-sale effects of a finalized order in one
// transaction: updated prescription dispense quantities and the outbox rows
// carrying the register entries. Either everything lands or nothing does.
type FinalizeStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewFinalizeStore creates a finalize store.
func NewFinalizeStore(pool *pgxpool.Pool, logger *zap.Logger) *FinalizeStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizeStore{pool: pool, logger: logger}
}

// SaveFinalization writes the sale's effects. rx may be nil when the order
// carried no prescription; entries may be empty when nothing controlled was
// sold.
func (s *FinalizeStore) SaveFinalization(ctx context.Context, rx *prescription.Prescription, entries []register.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if rx != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE prescriptions SET status = $2 WHERE id = $1`,
			rx.ID, rx.Status,
		); err != nil {
			return fmt.Errorf("update prescription: %w", err)
		}
		for _, line := range rx.Lines {
			if _, err := tx.Exec(ctx,
				`UPDATE prescription_lines SET quantity_dispensed = $3
				 WHERE prescription_id = $1 AND product_id = $2`,
				rx.ID, line.ProductID, line.QuantityDispensed,
			); err != nil {
				return fmt.Errorf("update prescription line: %w", err)
			}
		}
	}

	for i := range entries {
		payload, err := json.Marshal(&entries[i])
		if err != nil {
			return fmt.Errorf("marshal register entry: %w", err)
		}
		outboxEntry := &OutboxEntry{
			OrderID:   entries[i].OrderID,
			EventType: "register.entry.created",
			Payload:   payload,
			Topic:     redpanda.TopicRegisterEntries,
			Key:       entries[i].OrderID,
		}
		if err := WriteEntry(ctx, tx, outboxEntry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("finalization saved",
		zap.Int("register_entries", len(entries)),
		zap.Bool("prescription", rx != nil))
	return nil
}
