package mongo

import (
	"context"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BikeRepository struct {
	collection *mongo.Collection
}

func NewBikeRepository(db *mongo.Database) *BikeRepository {
	return &BikeRepository{
		collection: db.Collection(bikesCollection),
	}
}

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	now := time.Now().UTC()
	if bike.CreatedAt.IsZero() {
		bike.CreatedAt = now
	}
	bike.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, bike); err != nil {
		return nil, mapError(err, "bike")
	}
	return bike, nil
}

func (r *BikeRepository) GetBikeByID(ctx context.Context, id uuid.UUID) (*domain.Bike, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *BikeRepository) GetBikeByBikeID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	return r.findOne(ctx, bson.M{"bike_id": bikeID})
}

func (r *BikeRepository) findOne(ctx context.Context, filter bson.M) (*domain.Bike, error) {
	var bike domain.Bike
	if err := r.collection.FindOne(ctx, filter).Decode(&bike); err != nil {
		return nil, mapError(err, "bike")
	}
	return &bike, nil
}

func (r *BikeRepository) GetBikesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bike, error) {
	if len(ids) == 0 {
		return []*domain.Bike{}, nil
	}
	bikes, err := findAll[domain.Bike](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
	return bikes, mapError(err, "bike")
}

func (r *BikeRepository) ListBikes(ctx context.Context, availableOnly bool) ([]*domain.Bike, error) {
	filter := bson.M{}
	if availableOnly {
		filter["available"] = true
	}
	bikes, err := findAll[domain.Bike](ctx, r.collection, filter, newestFirst())
	return bikes, mapError(err, "bike")
}

func (r *BikeRepository) SetAvailability(ctx context.Context, bikeID string, available bool) (*domain.Bike, error) {
	update := bson.M{"$set": bson.M{"available": available, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var bike domain.Bike
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"bike_id": bikeID}, update, opts).Decode(&bike); err != nil {
		return nil, mapError(err, "bike")
	}
	return &bike, nil
}
