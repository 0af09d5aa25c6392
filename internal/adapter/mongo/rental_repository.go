package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RentalRepository struct {
	rentals *mongo.Collection
	bikes   *mongo.Collection
	logger  ports.LoggerPort
}

func NewRentalRepository(db *mongo.Database, logger ports.LoggerPort) *RentalRepository {
	return &RentalRepository{
		rentals: db.Collection(rentalsCollection),
		bikes:   db.Collection(bikesCollection),
		logger:  logger,
	}
}

// CreateRental claims the bike with a conditional update, then inserts the rental.
// A failed insert releases the claim again.
func (r *RentalRepository) CreateRental(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	now := time.Now().UTC()
	claim, err := r.bikes.UpdateOne(ctx,
		bson.M{"_id": rental.BikeID, "available": true},
		bson.M{"$set": bson.M{"available": false, "updated_at": now}},
	)
	if err != nil {
		return nil, mapError(err, "bike")
	}
	if claim.MatchedCount == 0 {
		n, err := r.bikes.CountDocuments(ctx, bson.M{"_id": rental.BikeID})
		if err != nil {
			return nil, mapError(err, "bike")
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: bike not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: bike is not available", domain.ErrConflict)
	}

	if rental.CreatedAt.IsZero() {
		rental.CreatedAt = now
	}
	rental.UpdatedAt = now

	if _, err := r.rentals.InsertOne(ctx, rental); err != nil {
		if _, relErr := r.bikes.UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": rental.BikeID},
			bson.M{"$set": bson.M{"available": true, "updated_at": time.Now().UTC()}},
		); relErr != nil {
			r.logger.Error("Failed to release bike after rental insert failure", map[string]interface{}{
				"bike_id": rental.BikeID.String(),
				"error":   relErr.Error(),
			})
		}
		return nil, mapError(err, "rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	var rental domain.Rental
	if err := r.rentals.FindOne(ctx, bson.M{"_id": id}).Decode(&rental); err != nil {
		return nil, mapError(err, "rental")
	}
	return &rental, nil
}

func (r *RentalRepository) GetRentalsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Rental, error) {
	rentals, err := findAll[domain.Rental](ctx, r.rentals, bson.M{"customer_id": customerID}, newestFirst())
	return rentals, mapError(err, "rental")
}

func (r *RentalRepository) CompleteRental(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Rental, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rental domain.Rental
	err := r.rentals.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": domain.RentalActive},
		bson.M{"$set": bson.M{"status": domain.RentalCompleted, "updated_at": at}},
		opts,
	).Decode(&rental)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := r.GetRentalByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: rental is %s", domain.ErrConflict, current.Status)
	}
	if err != nil {
		return nil, mapError(err, "rental")
	}

	if _, err := r.bikes.UpdateOne(ctx,
		bson.M{"_id": rental.BikeID},
		bson.M{"$set": bson.M{"available": true, "updated_at": at}},
	); err != nil {
		return nil, mapError(err, "bike")
	}
	return &rental, nil
}

func (r *RentalRepository) GetRentalStats(ctx context.Context, customerID uuid.UUID, now time.Time) (*domain.RentalStats, error) {
	count := func(filter bson.M) (int64, error) {
		filter["customer_id"] = customerID
		return r.rentals.CountDocuments(ctx, filter)
	}

	stats := &domain.RentalStats{}
	var err error
	if stats.TotalRentals, err = count(bson.M{}); err != nil {
		return nil, mapError(err, "rental")
	}
	if stats.ActiveRentals, err = count(bson.M{"status": domain.RentalActive}); err != nil {
		return nil, mapError(err, "rental")
	}
	if stats.OverdueRentals, err = count(bson.M{"status": domain.RentalActive, "rental_end": bson.M{"$lt": now}}); err != nil {
		return nil, mapError(err, "rental")
	}
	return stats, nil
}
