package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/metrics"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

const feedDateLayout = "02.01.2006"

// Loader downloads the official exchange rates feed for the current date
type Loader struct {
	client   *http.Client
	feedURL  string
	currency string
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewLoader creates a loader for the given feed and currency row label
func NewLoader(feedURL, currency string, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Loader {
	if currency == "" {
		currency = EuroLabel
	}
	return &Loader{
		client:   &http.Client{Timeout: timeout},
		feedURL:  feedURL,
		currency: currency,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// CurrentEurRate fetches today's rate. It returns errors.ErrRateUnavailable
// when the feed has no matching row.
func (l *Loader) CurrentEurRate(ctx context.Context) (models.ExchangeRate, error) {
	now := l.now()
	endpoint, err := l.endpoint(now)
	if err != nil {
		return models.ExchangeRate{}, err
	}

	start := time.Now()
	value, ok, err := l.fetch(ctx, endpoint)
	l.metrics.ObserveUpstream("rate_feed", err, time.Since(start))
	if err != nil {
		return models.ExchangeRate{}, err
	}
	if !ok {
		l.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"currency": l.currency,
		}).Warn("Exchange rate row not found in feed")
		return models.ExchangeRate{}, errors.ErrRateUnavailable
	}

	year, month, day := now.Date()
	return models.ExchangeRate{
		Currency:  l.currency,
		Value:     value,
		AsOf:      time.Date(year, month, day, 0, 0, 0, 0, now.Location()),
		FetchedAt: now,
	}, nil
}

func (l *Loader) endpoint(now time.Time) (string, error) {
	u, err := url.Parse(l.feedURL)
	if err != nil {
		return "", fmt.Errorf("invalid rate feed url: %w", err)
	}
	q := u.Query()
	q.Set("date", now.Format(feedDateLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (l *Loader) fetch(ctx context.Context, endpoint string) (value decimal.Decimal, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return value, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return value, false, errors.NewUpstreamTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return value, false, errors.NewUpstreamError(resp.StatusCode, endpoint, string(body))
	}

	return ParseRate(resp.Body, l.currency)
}
