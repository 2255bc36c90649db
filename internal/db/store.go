package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/config"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// Store defines the document store operations used by ingestion
type Store interface {
	// BulkInsert inserts records in one batch and reports how many were inserted
	BulkInsert(ctx context.Context, coll models.Collection, records []models.Record) (int, error)

	// DistinctIDs lists every distinct identity value stored in the collection
	DistinctIDs(ctx context.Context, coll models.Collection) ([]any, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool
	Close(ctx context.Context) error
}

// Open connects to the store selected by the configuration
func Open(ctx context.Context, cfg config.StoreConfig, logger *logrus.Logger) (Store, error) {
	log := logger.WithField("driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverMongo:
		store, err := NewMongoStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"uri":      cfg.MongoURI(),
			"database": cfg.DBName,
		}).Info("Connected to MongoDB")
		return store, nil

	case config.DriverPostgres:
		store, err := NewPostgresStore(ctx, cfg.DBConnectionString)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close(ctx)
			return nil, err
		}
		log.Info("Connected to PostgreSQL")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
