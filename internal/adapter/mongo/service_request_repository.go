package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ServiceRequestRepository struct {
	collection *mongo.Collection
}

func NewServiceRequestRepository(db *mongo.Database) *ServiceRequestRepository {
	return &ServiceRequestRepository{
		collection: db.Collection(serviceRequestsCollection),
	}
}

func (r *ServiceRequestRepository) CreateServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return nil, mapError(err, "service request")
	}
	return req, nil
}

func (r *ServiceRequestRepository) GetServiceRequestByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, mapError(err, "service request")
	}
	return &req, nil
}

func (r *ServiceRequestRepository) ListServiceRequests(ctx context.Context, filter domain.ServiceRequestFilter) ([]*domain.ServiceRequest, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.MechanicID != nil {
		query["assigned_mechanic_id"] = *filter.MechanicID
	}

	reqs, err := findAll[domain.ServiceRequest](ctx, r.collection, query, newestFirst())
	return reqs, mapError(err, "service request")
}

// UpdateServiceRequest replaces the mutable fields only while the stored status and mechanic equal expected.
func (r *ServiceRequestRepository) UpdateServiceRequest(ctx context.Context, req *domain.ServiceRequest, expected domain.RequestState) (*domain.ServiceRequest, error) {
	update := bson.M{
		"$set": bson.M{
			"assigned_mechanic_id": req.AssignedMechanicID,
			"status":               req.Status,
			"actual_cost":          req.ActualCost,
			"assigned_date":        req.AssignedDate,
			"completed_date":       req.CompletedDate,
			"mechanic_notes":       req.MechanicNotes,
			"updated_at":           time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.ServiceRequest
	filter := bson.M{
		"_id":                  req.ID,
		"status":               expected.Status,
		"assigned_mechanic_id": expected.MechanicID,
	}
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetServiceRequestByID(ctx, req.ID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: service request changed concurrently", domain.ErrConflict)
	}
	if err != nil {
		return nil, mapError(err, "service request")
	}
	return &updated, nil
}

func (r *ServiceRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapError(err, "service request")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status domain.RequestStatus `bson:"_id"`
		Count  int                  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapError(err, "service request")
	}

	counts := make(map[domain.RequestStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
