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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(usersCollection),
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	users, err := findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
	return users, mapError(err, "user")
}

func (r *UserRepository) GetUsersByRole(ctx context.Context, role domain.UserRole) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "first_name", Value: 1}, {Key: "last_name", Value: 1}})
	users, err := findAll[domain.User](ctx, r.collection, bson.M{"role": role}, opts)
	return users, mapError(err, "user")
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	update := bson.M{
		"$set": bson.M{
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"password_hash": user.PasswordHash,
			"phone_number":  user.PhoneNumber,
			"address":       user.Address,
			"city":          user.City,
			"state":         user.State,
			"role":          user.Role,
			"profile_image": user.ProfileImage,
			"updated_at":    time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update, opts).Decode(&updated); err != nil {
		return nil, mapError(err, "user")
	}
	return &updated, nil
}
