package ingest

import (
	"context"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// Fetcher reads collections from the partner API
type Fetcher interface {
	// FetchListing fetches the top-level listing only
	FetchListing(ctx context.Context, coll models.Collection) ([]models.Record, error)

	// FetchAll fetches the listing and every item's detail document, all or nothing
	FetchAll(ctx context.Context, coll models.Collection) ([]models.Record, error)
}

// RateProvider exposes the cached exchange rate
type RateProvider interface {
	Get() (models.ExchangeRate, bool)
}

// Converter adjusts a record with the current exchange rate before it is stored
type Converter interface {
	Convert(rec models.Record, rate models.ExchangeRate) models.Record
}

// NoopConverter stores records unchanged. Price conversion is not defined
// while the upstream price schema is inconsistent.
type NoopConverter struct{}

// Convert returns rec unchanged
func (NoopConverter) Convert(rec models.Record, _ models.ExchangeRate) models.Record {
	return rec
}
