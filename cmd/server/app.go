package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/config"
	"github.com/Kamar-Folarin/listing-sync/internal/db"
	"github.com/Kamar-Folarin/listing-sync/internal/exchange"
	"github.com/Kamar-Folarin/listing-sync/internal/ingest"
	"github.com/Kamar-Folarin/listing-sync/internal/metrics"
	"github.com/Kamar-Folarin/listing-sync/internal/partner"
)

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
	store   db.Store
	rates   *exchange.RateCache
	ingest  *ingest.Service
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown LOG_LEVEL, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel)
	m := metrics.New()

	// The store may still be starting when the service comes up
	var store db.Store
	if err := retry(ctx, 3, 5*time.Second, func() error {
		var openErr error
		store, openErr = db.Open(ctx, cfg.Store, logger)
		if openErr != nil {
			logger.WithError(openErr).Warn("Store connection failed, retrying")
		}
		return openErr
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	client := partner.NewClient(
		cfg.Partner.Token,
		partner.Endpoints{BaseURL: cfg.Partner.APIBaseURL, Lang: cfg.Partner.Lang},
		logger,
		partner.WithTimeout(cfg.Partner.Timeout),
		partner.WithFanoutLimit(cfg.Partner.FanoutLimit),
		partner.WithMetrics(m),
	)

	loader := exchange.NewLoader(cfg.Rate.FeedURL, cfg.Rate.Currency, cfg.Rate.Timeout, logger, m)
	rates := exchange.NewRateCache(loader, logger, m)

	svc := ingest.NewService(client, store, logger,
		ingest.WithRates(rates),
		ingest.WithMetrics(m),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		store:   store,
		rates:   rates,
		ingest:  svc,
	}, nil
}

// refreshRate loads the rate once. A missing rate only disables conversion.
func (a *app) refreshRate(ctx context.Context) {
	if err := a.rates.Refresh(ctx); err != nil {
		a.logger.WithError(err).Warn("Exchange rate not loaded, continuing without it")
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.store.Close(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to close store")
	}
}

// retry retries a function up to a certain number of attempts with a delay between attempts.
// It stops waiting as soon as ctx is done.
func retry(ctx context.Context, attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
			return retry(ctx, attempts, sleep, fn)
		}
		return err
	}
	return nil
}
