package partner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/metrics"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// Client performs authenticated reads against the partner API
type Client struct {
	client      *http.Client
	endpoints   Endpoints
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	fanoutLimit int
}

// ClientOption allows configuring the partner client
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithFanoutLimit caps concurrent detail fetches. Zero disables the cap.
func WithFanoutLimit(limit int) ClientOption {
	return func(c *Client) {
		c.fanoutLimit = limit
	}
}

// WithMetrics records upstream requests
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a partner client. The API token is sent as the basic-auth
// username with an empty password.
func NewClient(token string, endpoints Endpoints, logger *logrus.Logger, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: base64.StdEncoding.EncodeToString([]byte(token + ":")),
		TokenType:   "Basic",
	})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 30 * time.Second

	client := &Client{
		client:      httpClient,
		endpoints:   endpoints,
		logger:      logger,
		fanoutLimit: 8,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Endpoints returns the endpoint builder used by the client
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Fetch issues one GET and decodes the JSON object body. It never retries.
func (c *Client) Fetch(ctx context.Context, endpoint string) (models.Record, error) {
	start := time.Now()
	doc, err := c.fetch(ctx, endpoint)
	c.metrics.ObserveUpstream("partner", err, time.Since(start))
	return doc, err
}

func (c *Client) fetch(ctx context.Context, endpoint string) (models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		}).Warn("Partner API returned non-success status")
		return nil, errors.NewUpstreamError(resp.StatusCode, endpoint, string(body))
	}

	doc, err := decodeDocument(body)
	if err != nil {
		return nil, errors.NewMalformedResponseError(endpoint, "body is not a JSON object", err)
	}
	if doc == nil {
		return nil, errors.NewMalformedResponseError(endpoint, "empty document", nil)
	}

	return doc, nil
}

// decodeDocument keeps numbers as json.Number so identities are never rounded
func decodeDocument(body []byte) (models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc models.Record
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document")
	}
	return doc, nil
}
