package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HostnameAnnotation string `env:"HOSTNAME_ANNOTATION"`
	AppNameAnnotation  string `env:"APPNAME_ANNOTATION"`
	FallbackHostname   string `env:"FALLBACK_HOSTNAME" envDefault:"localhost"`

	MaxEventSize      int64    `env:"MAX_EVENT_SIZE_BYTES" envDefault:"1048576"` // 1MB
	ConvertServerAddr string   `env:"CONVERT_SERVER_ADDR" envDefault:":8080"`
	MetricsServerAddr string   `env:"METRICS_SERVER_ADDR" envDefault:":9090"`
	RateLimitRPS      float64  `env:"RATE_LIMIT_RPS" envDefault:"0"` // 0 disables rate limiting
	RateLimitBurst    int      `env:"RATE_LIMIT_BURST" envDefault:"100"`
	APIKeys           []string `env:"API_KEYS" envSeparator:","` // empty disables authentication

	EventHubConnectionString string        `env:"EVENTHUB_CONNECTION_STRING"`
	EventHubName             string        `env:"EVENTHUB_NAME"`
	EventHubNamespace        string        `env:"EVENTHUB_NAMESPACE"`
	EventHubConsumerGroup    string        `env:"EVENTHUB_CONSUMER_GROUP" envDefault:"$Default"`
	ReceiveBatchSize         int           `env:"RECEIVE_BATCH_SIZE" envDefault:"100"`
	ReceiveWait              time.Duration `env:"RECEIVE_WAIT" envDefault:"5s"`
	SinkRetryCount           int           `env:"SINK_RETRY_COUNT" envDefault:"3"`
	SinkRetryBackoff         time.Duration `env:"SINK_RETRY_BACKOFF" envDefault:"1s"`
}

// Load reads configuration from environment variables and validates the
// settings shared by every binary.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every problem with the shared settings at once.
func (c *Config) Validate() error {
	var err error

	if c.HostnameAnnotation == "" {
		err = multierr.Append(err, errors.New("HOSTNAME_ANNOTATION must be set"))
	}
	if c.AppNameAnnotation == "" {
		err = multierr.Append(err, errors.New("APPNAME_ANNOTATION must be set"))
	}
	if _, lvlErr := zapcore.ParseLevel(c.LogLevel); lvlErr != nil {
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL: %w", lvlErr))
	}
	if c.MaxEventSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("MAX_EVENT_SIZE_BYTES must be positive, got %d", c.MaxEventSize))
	}
	if c.RateLimitRPS < 0 {
		err = multierr.Append(err, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		err = multierr.Append(err, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting, got %d", c.RateLimitBurst))
	}

	return err
}

// ValidateConsumer reports problems with the settings the event hub
// consumer needs on top of the shared ones.
func (c *Config) ValidateConsumer() error {
	var err error

	if c.EventHubConnectionString == "" {
		err = multierr.Append(err, errors.New("EVENTHUB_CONNECTION_STRING must be set"))
	}
	if c.EventHubConsumerGroup == "" {
		err = multierr.Append(err, errors.New("EVENTHUB_CONSUMER_GROUP must be set"))
	}
	if c.ReceiveBatchSize < 1 {
		err = multierr.Append(err, fmt.Errorf("RECEIVE_BATCH_SIZE must be at least 1, got %d", c.ReceiveBatchSize))
	}
	if c.ReceiveWait <= 0 {
		err = multierr.Append(err, fmt.Errorf("RECEIVE_WAIT must be positive, got %s", c.ReceiveWait))
	}
	if c.SinkRetryCount < 1 {
		err = multierr.Append(err, fmt.Errorf("SINK_RETRY_COUNT must be at least 1, got %d", c.SinkRetryCount))
	}

	return err
}
