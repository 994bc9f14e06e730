package register

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store persists register entries in Postgres. The table is append-only;
// corrections are recorded as new movements, never as updates.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a store.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Insert appends one register entry.
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO controlled_drugs_register
		(id, date, product_id, product_name, transaction_type, quantity_dispensed,
		 lot_id, prescription_id, patient_name, patient_id_number,
		 prescriber_name, prescriber_license, order_id, authorized_by, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Date, e.ProductID, e.ProductName, e.TransactionType,
		e.QuantityDispensed, e.LotID, e.PrescriptionID, e.PatientName,
		e.PatientIDNumber, e.PrescriberName, e.PrescriberLicense,
		e.OrderID, e.AuthorizedBy, e.Remarks,
	)
	if err != nil {
		return fmt.Errorf("insert register entry: %w", err)
	}
	return nil
}

// ListByProduct returns register movements for one product in a period,
// oldest first, as inspected during an audit.
func (s *Store) ListByProduct(ctx context.Context, productID string, from, to time.Time) ([]*Entry, error) {
	query := `
		SELECT id, date, product_id, product_name, transaction_type, quantity_dispensed,
		       lot_id, prescription_id, patient_name, patient_id_number,
		       prescriber_name, prescriber_license, order_id, authorized_by, remarks
		FROM controlled_drugs_register
		WHERE product_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query register: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		err := rows.Scan(
			&e.ID, &e.Date, &e.ProductID, &e.ProductName, &e.TransactionType,
			&e.QuantityDispensed, &e.LotID, &e.PrescriptionID, &e.PatientName,
			&e.PatientIDNumber, &e.PrescriberName, &e.PrescriberLicense,
			&e.OrderID, &e.AuthorizedBy, &e.Remarks,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
