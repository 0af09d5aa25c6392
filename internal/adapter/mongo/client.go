package mongo

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection           = "users"
	bikesCollection           = "bikes"
	serviceRequestsCollection = "service_requests"
	rentalsCollection         = "rentals"
)

// Client wraps the MongoDB client and database
type Client struct {
	*mongo.Client
	Database *mongo.Database
	logger   ports.LoggerPort
}

// NewClient connects, pings and returns the database handle.
func NewClient(ctx context.Context, uri, dbName string, logger ports.LoggerPort) (*Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetRegistry(newRegistry()).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB", map[string]interface{}{
		"database": dbName,
	})

	return &Client{
		Client:   client,
		Database: client.Database(dbName),
		logger:   logger,
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes every repository relies on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		bikesCollection: {
			{Keys: bson.D{{Key: "bike_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		serviceRequestsCollection: {
			{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_mechanic_id", Value: 1}}},
		},
		rentalsCollection: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := c.Database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from MongoDB", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	c.logger.Info("Disconnected from MongoDB", nil)
	return nil
}

var uuidType = reflect.TypeOf(uuid.UUID{})

// newRegistry stores uuid.UUID as BSON binary subtype 4 instead of an int array.
func newRegistry() *bsoncodec.Registry {
	registry := bson.NewRegistry()
	registry.RegisterTypeEncoder(uuidType, bsoncodec.ValueEncoderFunc(encodeUUID))
	registry.RegisterTypeDecoder(uuidType, bsoncodec.ValueDecoderFunc(decodeUUID))
	return registry
}

func encodeUUID(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != uuidType {
		return bsoncodec.ValueEncoderError{Name: "encodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}
	id := val.Interface().(uuid.UUID)
	return vw.WriteBinaryWithSubtype(id[:], bsontype.BinaryUUID)
}

func decodeUUID(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != uuidType {
		return bsoncodec.ValueDecoderError{Name: "decodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}

	var id uuid.UUID
	switch vr.Type() {
	case bsontype.Binary:
		data, subtype, err := vr.ReadBinary()
		if err != nil {
			return err
		}
		if subtype != bsontype.BinaryUUID || len(data) != len(id) {
			return fmt.Errorf("cannot decode binary subtype %d of length %d into uuid", subtype, len(data))
		}
		copy(id[:], data)
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot decode %v into uuid", vr.Type())
	}

	val.Set(reflect.ValueOf(id))
	return nil
}
