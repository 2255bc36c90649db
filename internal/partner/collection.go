package partner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// FetchListing fetches the top-level listing of a collection. The listing
// document holds the items under a key named after the collection.
func (c *Client) FetchListing(ctx context.Context, coll models.Collection) ([]models.Record, error) {
	endpoint := c.endpoints.Listing(coll)
	doc, err := c.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	raw, ok := doc[coll.String()]
	if !ok {
		return nil, errors.NewMalformedResponseError(endpoint, fmt.Sprintf("missing %q key", coll), nil)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.NewMalformedResponseError(endpoint, fmt.Sprintf("%q is not an array", coll), nil)
	}

	records := make([]models.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewMalformedResponseError(endpoint, fmt.Sprintf("item %d is not an object", i), nil)
		}
		records = append(records, models.Record(obj))
	}

	return records, nil
}

// FetchAll fetches the listing and then every item's detail document
// concurrently. Either every detail is returned, in listing order, or the
// call fails as a whole. The first failure cancels outstanding fetches.
func (c *Client) FetchAll(ctx context.Context, coll models.Collection) ([]models.Record, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"collection":   coll,
		"fanout_limit": c.fanoutLimit,
	})

	listing, err := c.FetchListing(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s listing: %w", coll, err)
	}

	endpoints := make([]string, len(listing))
	for i, item := range listing {
		id, ok := item.ID()
		if !ok {
			return nil, errors.NewMalformedResponseError(c.endpoints.Listing(coll), fmt.Sprintf("item %d has no id", i), nil)
		}
		endpoint, err := c.endpoints.Detail(coll, id)
		if err != nil {
			return nil, errors.NewMalformedResponseError(c.endpoints.Listing(coll), fmt.Sprintf("item %d", i), err)
		}
		endpoints[i] = endpoint
	}

	start := time.Now()
	logger.WithField("items", len(endpoints)).Info("Fetching item details")

	results := make([]models.Record, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)
	if c.fanoutLimit > 0 {
		g.SetLimit(c.fanoutLimit)
	}

	for i, endpoint := range endpoints {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			doc, err := c.Fetch(gctx, endpoint)
			if err != nil {
				return fmt.Errorf("failed to fetch %s detail: %w", coll, err)
			}
			results[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Detail fetch failed, discarding batch")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"items":    len(results),
		"duration": time.Since(start).String(),
	}).Info("Fetched item details")

	return results, nil
}
