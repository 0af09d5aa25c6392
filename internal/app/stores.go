package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sm8ta/webike_marketplace/internal/adapter/memory"
	mongoAdapter "github.com/sm8ta/webike_marketplace/internal/adapter/mongo"
	"github.com/sm8ta/webike_marketplace/internal/adapter/postgres"
	"github.com/sm8ta/webike_marketplace/internal/config"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
)

// stores holds the repositories of the selected driver plus whatever must be closed at shutdown.
type stores struct {
	users    ports.UserRepository
	bikes    ports.BikeRepository
	requests ports.ServiceRequestRepository
	rentals  ports.RentalRepository

	db    *sql.DB
	mongo *mongoAdapter.Client
}

func openStores(ctx context.Context, cfg *config.Container, logger ports.LoggerPort) (*stores, error) {
	switch cfg.DB.Driver {
	case "postgres":
		// Connect DB
		db, err := postgres.Connect(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, err
		}

		// Migrate DB
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Postgres ready", map[string]interface{}{
			"host": cfg.DB.Host,
			"db":   cfg.DB.Name,
		})

		return &stores{
			users:    postgres.NewUserRepository(db),
			bikes:    postgres.NewBikeRepository(db),
			requests: postgres.NewServiceRequestRepository(db),
			rentals:  postgres.NewRentalRepository(db),
			db:       db,
		}, nil

	case "mongo":
		client, err := mongoAdapter.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			client.Close(context.Background())
			return nil, err
		}

		return &stores{
			users:    mongoAdapter.NewUserRepository(client.Database),
			bikes:    mongoAdapter.NewBikeRepository(client.Database),
			requests: mongoAdapter.NewServiceRequestRepository(client.Database),
			rentals:  mongoAdapter.NewRentalRepository(client.Database, logger),
			mongo:    client,
		}, nil

	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart", nil)
		store := memory.NewStore()
		return &stores{
			users:    store,
			bikes:    store,
			requests: store,
			rentals:  store,
		}, nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
}

func (s *stores) Close(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	if s.mongo != nil {
		return s.mongo.Close(ctx)
	}
	return nil
}
