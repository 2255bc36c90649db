// Package ingest moves partner collections into the store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/db"
	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/metrics"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// Option configures a Service
type Option func(*Service)

// WithRates sets the exchange rate source used by the conversion hook
func WithRates(rates RateProvider) Option {
	return func(s *Service) {
		s.rates = rates
	}
}

// WithConverter replaces the default no-op converter
func WithConverter(c Converter) Option {
	return func(s *Service) {
		s.converter = c
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStatusManager shares a status manager between services
func WithStatusManager(m *StatusManager) Option {
	return func(s *Service) {
		s.status = m
	}
}

// Service runs delta and full ingestion of partner collections
type Service struct {
	fetcher   Fetcher
	store     db.Store
	rates     RateProvider
	converter Converter
	status    *StatusManager
	locks     *collectionLocks
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewService creates a new ingestion service
func NewService(fetcher Fetcher, store db.Store, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher:   fetcher,
		store:     store,
		converter: NoopConverter{},
		status:    NewStatusManager(),
		locks:     newCollectionLocks(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the status manager tracking this service's runs
func (s *Service) Status() *StatusManager {
	return s.status
}

// SyncNew inserts the listed records of coll whose identity is not yet
// stored and returns how many were inserted. Detail documents are not fetched.
func (s *Service) SyncNew(ctx context.Context, coll models.Collection) (int, error) {
	return s.run(ctx, coll, models.SyncModeDelta, func(ctx context.Context, log *logrus.Entry) ([]models.Record, int, error) {
		ids, err := s.store.DistinctIDs(ctx, coll)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load stored ids: %w", err)
		}

		listing, err := s.fetcher.FetchListing(ctx, coll)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch %s listing: %w", coll, err)
		}

		fresh, skipped := NewRecords(listing, models.NewIdentitySet(ids))
		if skipped > 0 {
			log.WithField("skipped", skipped).Warn("Listing records without id skipped")
		}
		log.WithFields(logrus.Fields{
			"stored": len(ids),
			"listed": len(listing),
			"new":    len(fresh),
		}).Debug("Computed delta")

		return fresh, len(listing), nil
	})
}

// IngestCategories fetches the categories listing and stores all of it
func (s *Service) IngestCategories(ctx context.Context) (int, error) {
	return s.run(ctx, models.CollectionCategories, models.SyncModeFull, func(ctx context.Context, _ *logrus.Entry) ([]models.Record, int, error) {
		records, err := s.fetcher.FetchListing(ctx, models.CollectionCategories)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch categories: %w", err)
		}
		return records, len(records), nil
	})
}

// IngestAdverts fetches every advert's detail document and stores all of them
func (s *Service) IngestAdverts(ctx context.Context) (int, error) {
	return s.run(ctx, models.CollectionAdverts, models.SyncModeFull, func(ctx context.Context, _ *logrus.Entry) ([]models.Record, int, error) {
		records, err := s.fetcher.FetchAll(ctx, models.CollectionAdverts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch adverts: %w", err)
		}
		return records, len(records), nil
	})
}

// Ingest runs the full ingestion of coll
func (s *Service) Ingest(ctx context.Context, coll models.Collection) (int, error) {
	coll, err := models.ParseCollection(string(coll))
	if err != nil {
		return 0, err
	}
	if coll == models.CollectionCategories {
		return s.IngestCategories(ctx)
	}
	return s.IngestAdverts(ctx)
}

type collectFunc func(ctx context.Context, log *logrus.Entry) (records []models.Record, fetched int, err error)

// run holds the collection lock around collect and the single insert that follows it
func (s *Service) run(ctx context.Context, coll models.Collection, mode string, collect collectFunc) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"collection": coll,
		"mode":       mode,
	})

	release, err := s.locks.acquire(ctx, coll)
	if err != nil {
		log.WithError(err).Warn("Gave up waiting for collection lock")
		return 0, errors.New(errors.ErrUnavailable, fmt.Sprintf("another %s run is in progress", coll), err)
	}
	defer release()

	start := time.Now()
	runID := s.status.Begin(coll, mode)
	log = log.WithField("run_id", runID)
	log.Info("Starting ingestion run")

	inserted, fetched, err := s.ingest(ctx, coll, log, collect)

	s.status.Finish(coll, runID, fetched, inserted, err)
	s.metrics.ObserveSync(string(coll), mode, inserted, err, time.Since(start))

	if err != nil {
		log.WithError(err).Error("Ingestion run failed")
		return 0, err
	}

	log.WithFields(logrus.Fields{
		"fetched":  fetched,
		"inserted": inserted,
		"duration": time.Since(start).String(),
	}).Info("Ingestion run completed")
	return inserted, nil
}

func (s *Service) ingest(ctx context.Context, coll models.Collection, log *logrus.Entry, collect collectFunc) (int, int, error) {
	records, fetched, err := collect(ctx, log)
	if err != nil {
		return 0, fetched, err
	}
	if len(records) == 0 {
		return 0, fetched, nil
	}

	if coll == models.CollectionAdverts {
		records = s.convert(records)
	}

	inserted, err := s.store.BulkInsert(ctx, coll, records)
	if err != nil {
		return 0, fetched, fmt.Errorf("failed to store %s: %w", coll, err)
	}
	return inserted, fetched, nil
}

func (s *Service) convert(records []models.Record) []models.Record {
	if s.rates == nil {
		return records
	}
	rate, ok := s.rates.Get()
	if !ok {
		return records
	}
	out := make([]models.Record, len(records))
	for i, rec := range records {
		out[i] = s.converter.Convert(rec, rate)
	}
	return out
}
