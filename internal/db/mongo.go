package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kamar-Folarin/listing-sync/internal/config"
	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// MongoStore keeps each collection in a MongoDB collection of the same name
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, cfg config.StoreConfig) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI()).
		SetMaxPoolSize(cfg.MongoMaxPoolSize)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	store := &MongoStore{
		client: client,
		db:     client.Database(cfg.DBName),
	}
	if err := store.Ping(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return store, nil
}

// BulkInsert inserts all records with a single ordered InsertMany
func (s *MongoStore) BulkInsert(ctx context.Context, coll models.Collection, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	res, err := s.db.Collection(coll.String()).InsertMany(ctx, toDocuments(records), options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, errors.NewStoreError("insert_many", coll.String(), err)
	}

	return len(res.InsertedIDs), nil
}

// DistinctIDs returns the distinct values of the identity field
func (s *MongoStore) DistinctIDs(ctx context.Context, coll models.Collection) ([]any, error) {
	values, err := s.db.Collection(coll.String()).Distinct(ctx, models.IDField, bson.D{})
	if err != nil {
		return nil, errors.NewStoreError("distinct", coll.String(), err)
	}
	return values, nil
}

// Ping verifies the primary is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.NewStoreError("ping", s.db.Name(), err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toDocuments(records []models.Record) []interface{} {
	docs := make([]interface{}, len(records))
	for i, rec := range records {
		docs[i] = bson.M(rec)
	}
	return docs
}
