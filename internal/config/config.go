package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// Config holds all configuration for the chat service and its tools.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"hellob-chat"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON         bool          `env:"LOG_JSON" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"3s"`
	NodeID          string        `env:"NODE_ID"`

	// Storage
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL   string `env:"DB_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"4"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	BoltPath      string `env:"BOLT_PATH" envDefault:"data/chat.db"`

	// Redis backs the membership cache, cross-node fan-out and the task queue.
	// Without it everything runs in process.
	RedisURL  string        `env:"REDIS_URL"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"4096"`

	// Auth
	AuthEnabled  bool          `env:"AUTH_ENABLED" envDefault:"false"`
	AuthSecret   string        `env:"AUTH_SECRET"`
	AuthIssuer   string        `env:"AUTH_ISSUER" envDefault:"hellob"`
	AuthTokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`

	// WebSocket channels
	WSWriteWait       time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s"`
	WSPingPeriod      time.Duration `env:"WS_PING_PERIOD" envDefault:"30s"`
	WSPongWait        time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	WSSendBuffer      int           `env:"WS_SEND_BUFFER" envDefault:"128"`
	WSMaxMessageBytes int64         `env:"WS_MAX_MESSAGE_BYTES" envDefault:"65536"`
	WSAllowedOrigins  []string      `env:"WS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Unread notifications
	NotifyDelay      time.Duration `env:"NOTIFY_DELAY" envDefault:"2m"`
	NotifyWebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	AsynqConcurrency int           `env:"ASYNQ_CONCURRENCY" envDefault:"10"`
	AsynqQueues      string        `env:"ASYNQ_QUEUES" envDefault:"chat=1"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules env tags cannot express.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMemory, StoreBolt:
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DB_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, bolt (got %q)", c.StoreDriver)
	}

	if c.StoreDriver == StoreBolt && strings.TrimSpace(c.BoltPath) == "" {
		return fmt.Errorf("BOLT_PATH is required when STORE_DRIVER is bolt")
	}

	if c.AuthEnabled && strings.TrimSpace(c.AuthSecret) == "" {
		return fmt.Errorf("AUTH_SECRET is required when AUTH_ENABLED is true")
	}

	if c.WSPingPeriod <= 0 || c.WSPongWait <= c.WSPingPeriod {
		return fmt.Errorf("WS_PONG_WAIT (%s) must be greater than WS_PING_PERIOD (%s)", c.WSPongWait, c.WSPingPeriod)
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UsesRedis reports whether a Redis deployment is configured.
func (c *Config) UsesRedis() bool {
	return strings.TrimSpace(c.RedisURL) != ""
}
