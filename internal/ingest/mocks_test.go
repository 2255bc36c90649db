package ingest

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// MockStore implements db.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) BulkInsert(ctx context.Context, coll models.Collection, records []models.Record) (int, error) {
	args := m.Called(ctx, coll, records)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) DistinctIDs(ctx context.Context, coll models.Collection) ([]any, error) {
	args := m.Called(ctx, coll)
	ids, _ := args.Get(0).([]any)
	return ids, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockFetcher implements Fetcher for testing
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchListing(ctx context.Context, coll models.Collection) ([]models.Record, error) {
	args := m.Called(ctx, coll)
	records, _ := args.Get(0).([]models.Record)
	return records, args.Error(1)
}

func (m *MockFetcher) FetchAll(ctx context.Context, coll models.Collection) ([]models.Record, error) {
	args := m.Called(ctx, coll)
	records, _ := args.Get(0).([]models.Record)
	return records, args.Error(1)
}

type staticRates struct {
	rate models.ExchangeRate
	ok   bool
}

func (s staticRates) Get() (models.ExchangeRate, bool) {
	return s.rate, s.ok
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func ids(records []models.Record) []any {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		id, _ := rec.ID()
		out = append(out, id)
	}
	return out
}
