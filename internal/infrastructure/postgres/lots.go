package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/internal/domain/dispensing"
)

// LotStore reads candidate lots for the batch selector. Stock levels are
// owned by the host inventory; this store only reads.
type LotStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewLotStore creates a lot store.
func NewLotStore(pool *pgxpool.Pool, logger *zap.Logger) *LotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotStore{pool: pool, logger: logger}
}

// ListByProduct returns all lots of a product with stock on hand. Ordering
// is left to the selector; expired lots are included so they can be shown
// greyed out.
func (s *LotStore) ListByProduct(ctx context.Context, productID string) ([]*dispensing.Lot, error) {
	query := `
		SELECT id, product_id, lot_number, expiry_date, manufacturing_date,
		       purchase_price, quantity_on_hand
		FROM stock_lots
		WHERE product_id = $1
		  AND quantity_on_hand > 0
	`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var lots []*dispensing.Lot
	for rows.Next() {
		lot := &dispensing.Lot{}
		err := rows.Scan(
			&lot.ID, &lot.ProductID, &lot.LotNumber, &lot.ExpiryDate,
			&lot.ManufacturingDate, &lot.PurchasePrice, &lot.QuantityOnHand,
		)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}
