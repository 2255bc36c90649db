package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/metrics"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// RateSource provides the current exchange rate
type RateSource interface {
	CurrentEurRate(ctx context.Context) (models.ExchangeRate, error)
}

// RateCache holds the last loaded rate. A rate is stale once its as-of date
// is before today; the scheduler refreshes it daily.
type RateCache struct {
	source  RateSource
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	rate *models.ExchangeRate
}

// NewRateCache creates an empty cache
func NewRateCache(source RateSource, logger *logrus.Logger, m *metrics.Metrics) *RateCache {
	return &RateCache{
		source:  source,
		logger:  logger,
		metrics: m,
	}
}

// Refresh loads the current rate. When the feed has no rate the previous
// value is kept and errors.ErrRateUnavailable is returned.
func (c *RateCache) Refresh(ctx context.Context) error {
	rate, err := c.source.CurrentEurRate(ctx)
	if err != nil {
		if errors.IsRateUnavailable(err) {
			c.logger.Warn("Exchange rate unavailable, keeping previous value")
		}
		return err
	}

	c.mu.Lock()
	c.rate = &rate
	c.mu.Unlock()

	value, _ := rate.Value.Float64()
	c.metrics.SetExchangeRate(value)
	c.logger.WithFields(logrus.Fields{
		"currency": rate.Currency,
		"rate":     rate.Value.String(),
		"as_of":    rate.AsOf.Format("2006-01-02"),
	}).Info("Exchange rate refreshed")

	return nil
}

// Get returns the cached rate, if any
func (c *RateCache) Get() (models.ExchangeRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rate == nil {
		return models.ExchangeRate{}, false
	}
	return *c.rate, true
}

// Stale reports whether the cache is empty or holds a rate from before now's date
func (c *RateCache) Stale(now time.Time) bool {
	rate, ok := c.Get()
	if !ok {
		return true
	}
	year, month, day := now.In(rate.AsOf.Location()).Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, rate.AsOf.Location())
	return rate.AsOf.Before(today)
}
