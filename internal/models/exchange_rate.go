package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is an official MDL rate for one currency on one day.
type ExchangeRate struct {
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	AsOf      time.Time       `json:"as_of"`
	FetchedAt time.Time       `json:"fetched_at"`
}
