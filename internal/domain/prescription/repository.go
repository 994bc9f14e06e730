// Package prescription provides the prescription store.
package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a prescription does not exist.
var ErrNotFound = errors.New("prescription not found")

// Repository provides prescription persistence backed by Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// Get loads a prescription with its lines.
func (r *Repository) Get(ctx context.Context, id string) (*Prescription, error) {
	query := `
		SELECT id, name, date, patient_id, patient_name, prescriber_name,
		       prescriber_license, status, diagnosis, special_instructions
		FROM prescriptions
		WHERE id = $1
	`

	rx := &Prescription{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rx.ID, &rx.Name, &rx.Date, &rx.Patient.ID, &rx.Patient.DisplayName,
		&rx.Prescriber.Name, &rx.Prescriber.License, &rx.Status,
		&rx.Diagnosis, &rx.SpecialInstructions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query prescription: %w", err)
	}

	rx.Lines, err = r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return rx, nil
}

func (r *Repository) getLines(ctx context.Context, prescriptionID string) ([]Line, error) {
	query := `
		SELECT product_id, product_name, generic_name, quantity_prescribed,
		       quantity_dispensed, dosage, frequency, duration
		FROM prescription_lines
		WHERE prescription_id = $1
		ORDER BY position ASC
	`

	rows, err := r.pool.Query(ctx, query, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("query prescription lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		err := rows.Scan(
			&l.ProductID, &l.ProductName, &l.GenericName,
			&l.QuantityPrescribed, &l.QuantityDispensed,
			&l.Dosage, &l.Frequency, &l.Duration,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListDispensable returns validated or partially dispensed prescriptions,
// newest first. These are the candidates offered to the prescription picker.
func (r *Repository) ListDispensable(ctx context.Context, limit int) ([]*Prescription, error) {
	query := `
		SELECT id, name, date, patient_id, patient_name, prescriber_name,
		       prescriber_license, status, diagnosis, special_instructions
		FROM prescriptions
		WHERE status IN ($1, $2)
		ORDER BY date DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, StatusValidated, StatusPartial, limit)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	var result []*Prescription
	for rows.Next() {
		rx := &Prescription{}
		err := rows.Scan(
			&rx.ID, &rx.Name, &rx.Date, &rx.Patient.ID, &rx.Patient.DisplayName,
			&rx.Prescriber.Name, &rx.Prescriber.License, &rx.Status,
			&rx.Diagnosis, &rx.SpecialInstructions,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, rx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rx := range result {
		rx.Lines, err = r.getLines(ctx, rx.ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SaveDispense persists updated dispensed quantities and status after a
// finalized sale, in one transaction.
func (r *Repository) SaveDispense(ctx context.Context, rx *Prescription) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

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

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("prescription dispense saved",
		zap.String("id", rx.ID),
		zap.String("status", string(rx.Status)))
	return nil
}
