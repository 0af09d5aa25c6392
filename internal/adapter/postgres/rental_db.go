package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

const rentalColumns = `id, customer_id, bike_id, rental_start, rental_end, total_cost, status, created_at, updated_at`

type RentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rental := &domain.Rental{}
	err := row.Scan(
		&rental.ID,
		&rental.CustomerID,
		&rental.BikeID,
		&rental.RentalStart,
		&rental.RentalEnd,
		&rental.TotalCost,
		&rental.Status,
		&rental.CreatedAt,
		&rental.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (r *RentalRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *RentalRepository) CreateRental(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bikes SET available = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND available = TRUE`,
			rental.BikeID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bikes WHERE id = $1)`, rental.BikeID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: bike not found", domain.ErrNotFound)
			}
			return fmt.Errorf("%w: bike is not available", domain.ErrConflict)
		}

		query := `INSERT INTO rentals (id, customer_id, bike_id, rental_start, rental_end, total_cost, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`
		return tx.QueryRowContext(ctx, query,
			rental.ID,
			rental.CustomerID,
			rental.BikeID,
			rental.RentalStart,
			rental.RentalEnd,
			rental.TotalCost,
			rental.Status,
		).Scan(&rental.CreatedAt, &rental.UpdatedAt)
	})
	if err != nil {
		return nil, mapError(err, "rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	rental, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE customer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rentals := []*domain.Rental{}
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *RentalRepository) CompleteRental(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Rental, error) {
	var rental *domain.Rental
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE rentals SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
			RETURNING ` + rentalColumns
		var err error
		rental, err = scanRental(tx.QueryRowContext(ctx, query, domain.RentalCompleted, at, id, domain.RentalActive))
		if errors.Is(err, sql.ErrNoRows) {
			var status domain.RentalStatus
			if err := tx.QueryRowContext(ctx, `SELECT status FROM rentals WHERE id = $1`, id).Scan(&status); err != nil {
				return err
			}
			return fmt.Errorf("%w: rental is %s", domain.ErrConflict, status)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE bikes SET available = TRUE, updated_at = $1 WHERE id = $2`, at, rental.BikeID)
		return err
	})
	if err != nil {
		return nil, mapError(err, "rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalStats(ctx context.Context, customerID uuid.UUID, now time.Time) (*domain.RentalStats, error) {
	query := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'active' AND rental_end < $2)
		FROM rentals WHERE customer_id = $1`

	stats := &domain.RentalStats{}
	err := r.db.QueryRowContext(ctx, query, customerID, now).Scan(
		&stats.TotalRentals,
		&stats.ActiveRentals,
		&stats.OverdueRentals,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
