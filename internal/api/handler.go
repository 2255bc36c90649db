package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// IngestService runs ingestion on demand
type IngestService interface {
	SyncNew(ctx context.Context, coll models.Collection) (int, error)
	IngestCategories(ctx context.Context) (int, error)
	IngestAdverts(ctx context.Context) (int, error)
}

// StatusLister lists the last run of every collection
type StatusLister interface {
	List() []*models.SyncStatus
}

// RateReader reads the cached exchange rate
type RateReader interface {
	Get() (models.ExchangeRate, bool)
	Stale(now time.Time) bool
}

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API
type Handler struct {
	ingest IngestService
	status StatusLister
	rates  RateReader
	store  Pinger
	logger *logrus.Logger
}

// NewHandler creates a new API handler
func NewHandler(ingest IngestService, status StatusLister, rates RateReader, store Pinger, logger *logrus.Logger) *Handler {
	return &Handler{
		ingest: ingest,
		status: status,
		rates:  rates,
		store:  store,
		logger: logger,
	}
}

// GetCategories ingests every category
// @Summary Ingest categories
// @Description Fetch the categories listing and store every record
// @Tags ingest
// @Produce json
// @Success 200 {object} IngestResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /categories [get]
func (h *Handler) GetCategories(c *gin.Context) {
	n, err := h.ingest.IngestCategories(c.Request.Context())
	if err != nil {
		h.respondWithError(c, "Failed to ingest categories", err)
		return
	}
	c.JSON(http.StatusOK, IngestResponse{
		Inserted: n,
		Message:  fmt.Sprintf("Fetched %d categories", n),
	})
}

// GetAdverts ingests every advert with its detail document
// @Summary Ingest adverts
// @Description Fetch the adverts listing and every advert detail, then store them. Nothing is stored if any detail fetch fails.
// @Tags ingest
// @Produce json
// @Success 200 {object} IngestResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /adverts [get]
func (h *Handler) GetAdverts(c *gin.Context) {
	n, err := h.ingest.IngestAdverts(c.Request.Context())
	if err != nil {
		h.respondWithError(c, "Failed to ingest adverts", err)
		return
	}
	c.JSON(http.StatusOK, IngestResponse{
		Inserted: n,
		Message:  fmt.Sprintf("Fetched %d adverts", n),
	})
}

// SyncCollection runs a delta sync
// @Summary Sync new records
// @Description Store the listed records of a collection that are not stored yet
// @Tags sync
// @Produce json
// @Param collection path string true "Collection name" Enums(adverts, categories)
// @Success 200 {object} SyncResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /sync/{collection} [post]
func (h *Handler) SyncCollection(c *gin.Context) {
	coll, err := models.ParseCollection(c.Param("collection"))
	if err != nil {
		h.respondWithError(c, "Invalid collection", err)
		return
	}

	n, err := h.ingest.SyncNew(c.Request.Context(), coll)
	if err != nil {
		h.respondWithError(c, "Failed to sync collection", err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Collection: coll.String(), Inserted: n})
}

// GetSyncStatus lists the last run per collection
// @Summary Get sync statuses
// @Description Get the last ingestion run of every collection
// @Tags sync
// @Produce json
// @Success 200 {array} models.SyncStatus
// @Router /sync/status [get]
func (h *Handler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.List())
}

// GetRate returns the cached EUR rate
// @Summary Get EUR rate
// @Description Get the cached official EUR exchange rate
// @Tags rate
// @Produce json
// @Success 200 {object} RateResponse
// @Failure 404 {object} ErrorResponse
// @Router /rate [get]
func (h *Handler) GetRate(c *gin.Context) {
	rate, ok := h.rates.Get()
	if !ok {
		h.respondWithError(c, "No exchange rate loaded", errors.ErrRateUnavailable)
		return
	}
	c.JSON(http.StatusOK, RateResponse{
		Currency:  rate.Currency,
		Value:     rate.Value.String(),
		AsOf:      rate.AsOf,
		FetchedAt: rate.FetchedAt,
		Stale:     h.rates.Stale(time.Now()),
	})
}

// Health reports whether the store is reachable
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Store ping failed")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Store: "down"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Store: "up"})
}

func (h *Handler) respondWithError(c *gin.Context, msg string, err error) {
	code := statusCode(err)
	entry := h.logger.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": code,
	}).WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Warn(msg)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

func statusCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrInvalidInput:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrUpstream:
		return http.StatusBadGateway
	case errors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
