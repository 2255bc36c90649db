package config

import "time"

// PartnerConfig holds partner API configuration
type PartnerConfig struct {
	Token      string
	APIBaseURL string
	Lang       string
	Timeout    time.Duration
	// FanoutLimit caps concurrent detail fetches. Zero means unbounded.
	FanoutLimit int
}

// RateConfig holds exchange-rate feed configuration
type RateConfig struct {
	FeedURL  string
	Currency string
	Timeout  time.Duration
}
