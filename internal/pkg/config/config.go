package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/propnest/marketplace/internal/core/domain"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Gateway   GatewayConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=marketplace"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// GatewayConfig holds the payment gateway credentials. They are read once at
// startup.
type GatewayConfig struct {
	KeyID         string `env:"GATEWAY_KEY_ID"`
	KeySecret     string `env:"GATEWAY_KEY_SECRET"`
	BaseURL       string `env:"GATEWAY_BASE_URL, default=https://api.razorpay.com"`
	WebhookSecret string `env:"GATEWAY_WEBHOOK_SECRET"`
}

type WebhookConfig struct {
	Workers int `env:"WEBHOOK_WORKERS, default=4"`
}

type RateLimitConfig struct {
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND, default=5"`
	Burst     int     `env:"RATE_LIMIT_BURST,      default=10"`
}

// Credentials returns the key pair, or ok=false when either half is missing.
// A partial pair is treated as no pair at all.
func (g GatewayConfig) Credentials() (keyID, keySecret string, ok bool) {
	keyID, keySecret = strings.TrimSpace(g.KeyID), strings.TrimSpace(g.KeySecret)
	if keyID == "" || keySecret == "" {
		return "", "", false
	}
	return keyID, keySecret, true
}

// Missing lists the gateway variables that are unset.
func (g GatewayConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(g.KeyID) == "" {
		missing = append(missing, "GATEWAY_KEY_ID")
	}
	if strings.TrimSpace(g.KeySecret) == "" {
		missing = append(missing, "GATEWAY_KEY_SECRET")
	}
	return missing
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// Validate reports settings without which the server cannot start. Missing
// gateway settings are not fatal; payment endpoints report them per request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return &domain.ConfigurationError{Component: "auth", Missing: []string{"JWT_SECRET"}}
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
