package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel string
	Partner  PartnerConfig
	Store    StoreConfig
	Sync     SyncConfig
	Rate     RateConfig
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Driver             string
	MongoHost          string
	MongoPort          int
	MongoMaxPoolSize   uint64
	DBName             string
	DBConnectionString string
	ConnectTimeout     time.Duration
}

// MongoURI returns the connection URI for the mongo driver
func (s StoreConfig) MongoURI() string {
	return fmt.Sprintf("mongodb://%s:%d", s.MongoHost, s.MongoPort)
}

var defaults = map[string]any{
	"PORT":                  "8000",
	"LOG_LEVEL":             "info",
	"API_TOKEN":             "",
	"PARTNER_API_URL":       "https://partners-api.999.md",
	"PARTNER_LANG":          "ro",
	"HTTP_TIMEOUT":          "30s",
	"FANOUT_LIMIT":          8,
	"STORE_DRIVER":          DriverMongo,
	"MONGO_HOST":            "localhost",
	"MONGO_PORT":            27017,
	"MONGO_MAX_POOL_SIZE":   2,
	"DB_NAME":               "",
	"DB_CONNECTION_STRING":  "",
	"STORE_CONNECT_TIMEOUT": "10s",
	"SYNC_INTERVAL":         "24h",
	"SYNC_ON_START":         false,
	"RATE_FEED_URL":         "https://bnm.md/ro/export-official-exchange-rates",
	"RATE_CURRENCY":         "Euro",
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	httpTimeout, err := duration(v, "HTTP_TIMEOUT")
	if err != nil {
		return nil, err
	}
	connectTimeout, err := duration(v, "STORE_CONNECT_TIMEOUT")
	if err != nil {
		return nil, err
	}
	syncInterval, err := duration(v, "SYNC_INTERVAL")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Partner: PartnerConfig{
			Token:       v.GetString("API_TOKEN"),
			APIBaseURL:  strings.TrimRight(v.GetString("PARTNER_API_URL"), "/"),
			Lang:        v.GetString("PARTNER_LANG"),
			Timeout:     httpTimeout,
			FanoutLimit: v.GetInt("FANOUT_LIMIT"),
		},
		Store: StoreConfig{
			Driver:             strings.ToLower(v.GetString("STORE_DRIVER")),
			MongoHost:          v.GetString("MONGO_HOST"),
			MongoPort:          v.GetInt("MONGO_PORT"),
			MongoMaxPoolSize:   v.GetUint64("MONGO_MAX_POOL_SIZE"),
			DBName:             v.GetString("DB_NAME"),
			DBConnectionString: v.GetString("DB_CONNECTION_STRING"),
			ConnectTimeout:     connectTimeout,
		},
		Sync: SyncConfig{
			Interval: syncInterval,
			OnStart:  v.GetBool("SYNC_ON_START"),
		},
		Rate: RateConfig{
			FeedURL:  v.GetString("RATE_FEED_URL"),
			Currency: v.GetString("RATE_CURRENCY"),
			Timeout:  httpTimeout,
		},
	}, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Validate checks that the minimum required configuration is present
func (c *Config) Validate() error {
	var missing []string
	if c.Partner.Token == "" {
		missing = append(missing, "API_TOKEN")
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
	case DriverPostgres:
		if c.Store.DBConnectionString == "" {
			missing = append(missing, "DB_CONNECTION_STRING")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (use %s or %s)", c.Store.Driver, DriverMongo, DriverPostgres)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Partner.FanoutLimit < 0 {
		return fmt.Errorf("FANOUT_LIMIT cannot be negative")
	}
	return nil
}
