package api

import "time"

// IngestResponse is returned by the full ingestion endpoints
// @Description Result of a full ingestion run
type IngestResponse struct {
	// Number of stored records
	Inserted int `json:"inserted" example:"42"`
	// Human readable summary
	Message string `json:"message" example:"Fetched 42 adverts"`
}

// SyncResponse is returned by the delta sync endpoint
// @Description Result of a delta sync run
type SyncResponse struct {
	Collection string `json:"collection" example:"adverts"`
	// Number of new records stored
	Inserted int `json:"inserted" example:"3"`
}

// RateResponse is the cached EUR exchange rate
// @Description Current EUR exchange rate
type RateResponse struct {
	Currency  string    `json:"currency" example:"EUR"`
	Value     string    `json:"value" example:"19.2537"`
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
	// True when the rate is older than today
	Stale bool `json:"stale"`
}

// HealthResponse reports service and store health
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Store  string `json:"store" example:"up"`
}

// ErrorResponse represents an error response
// @Description Error response
type ErrorResponse struct {
	// Error message
	Error string `json:"error" example:"upstream error (status 502) from https://partners-api.999.md/adverts"`
}
