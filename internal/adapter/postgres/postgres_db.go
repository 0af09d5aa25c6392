package postgres

import (
	"context"
	"database/sql"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bikeColumns = `id, bike_id, name, model, type, year, price, description, fuel_type, mileage, available, created_at, updated_at`

type BikeRepository struct {
	db *sql.DB
}

func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{
		db,
	}
}

func scanBike(row rowScanner) (*domain.Bike, error) {
	bike := &domain.Bike{}
	err := row.Scan(
		&bike.ID,
		&bike.BikeID,
		&bike.Name,
		&bike.Model,
		&bike.Type,
		&bike.Year,
		&bike.Price,
		&bike.Description,
		&bike.FuelType,
		&bike.Mileage,
		&bike.Available,
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bike, nil
}

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	query := `INSERT INTO bikes (id, bike_id, name, model, type, year, price, description, fuel_type, mileage, available)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		bike.ID,
		bike.BikeID,
		bike.Name,
		bike.Model,
		bike.Type,
		bike.Year,
		bike.Price,
		bike.Description,
		bike.FuelType,
		bike.Mileage,
		bike.Available,
	).Scan(
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "bike")
	}
	return bike, nil
}

func (r *BikeRepository) GetBikeByID(ctx context.Context, id uuid.UUID) (*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	bike, err := scanBike(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "bike")
	}
	return bike, nil
}

func (r *BikeRepository) GetBikeByBikeID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE bike_id = $1`

	bike, err := scanBike(r.db.QueryRowContext(ctx, query, bikeID))
	if err != nil {
		return nil, mapError(err, "bike")
	}
	return bike, nil
}

func (r *BikeRepository) GetBikesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bike, error) {
	if len(ids) == 0 {
		return []*domain.Bike{}, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = ANY($1::uuid[])`
	return r.queryBikes(ctx, query, pq.Array(raw))
}

func (r *BikeRepository) ListBikes(ctx context.Context, availableOnly bool) ([]*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes
		WHERE ($1 = FALSE OR available = TRUE)
		ORDER BY created_at DESC`
	return r.queryBikes(ctx, query, availableOnly)
}

func (r *BikeRepository) queryBikes(ctx context.Context, query string, args ...any) ([]*domain.Bike, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bikes := []*domain.Bike{}
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, bike)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bikes, nil
}

func (r *BikeRepository) SetAvailability(ctx context.Context, bikeID string, available bool) (*domain.Bike, error) {
	query := `UPDATE bikes
		SET available = $1, updated_at = CURRENT_TIMESTAMP
		WHERE bike_id = $2
		RETURNING ` + bikeColumns

	bike, err := scanBike(r.db.QueryRowContext(ctx, query, available, bikeID))
	if err != nil {
		return nil, mapError(err, "bike")
	}
	return bike, nil
}
