// Package container provides dependency injection and lifecycle management
// for the business trip service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Redis connection, used only by the redis lock backend
	Redis RedisConfig

	// Lark API configuration
	Lark LarkConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Travel policy
	Policy PolicyConfig

	// Per-trip lock configuration
	Lock LockConfig

	// Storage configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// AppID is the Lark application ID. Empty disables notifications.
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// BaseURL overrides the open platform endpoint
	BaseURL string

	// ApproverChatID is the group chat that receives approval requests
	ApproverChatID string

	// UserIDType maps employee ids to Lark users
	UserIDType string
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Empty disables settlement review.
	APIKey string

	// BaseURL overrides the API endpoint
	BaseURL string

	// Model is the model to use (e.g., "gpt-4o-mini")
	Model string

	// PromptsPath points to a prompts.yaml override
	PromptsPath string

	// Timeout for API calls
	Timeout time.Duration
}

// PolicyConfig holds the travel policy applied to estimates.
type PolicyConfig struct {
	HomeCityID           string
	HomeCountryID        string
	Currency             string
	DomesticPerDiem      decimal.Decimal
	InternationalPerDiem decimal.Decimal
}

// LockConfig holds per-trip lock settings.
type LockConfig struct {
	// Backend is "memory" or "redis"
	Backend string

	// TTL bounds how long a crashed holder keeps a redis lock
	TTL time.Duration

	// Wait is how long a caller waits for a busy trip
	Wait time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// ReportDir is where settled trip workbooks are archived
	ReportDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/business_trip.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Lark: LarkConfig{
			UserIDType: "user_id",
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Policy: PolicyConfig{
			HomeCityID:           "WAW",
			HomeCountryID:        "PL",
			Currency:             "PLN",
			DomesticPerDiem:      decimal.RequireFromString("45.00"),
			InternationalPerDiem: decimal.RequireFromString("200.00"),
		},
		Lock: LockConfig{
			Backend: "memory",
			TTL:     30 * time.Second,
			Wait:    5 * time.Second,
		},
		Storage: StorageConfig{
			ReportDir: "data/reports",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate travel policy
	if c.Policy.HomeCityID == "" {
		return fmt.Errorf("policy.home_city_id is required")
	}
	if c.Policy.HomeCountryID == "" {
		return fmt.Errorf("policy.home_country_id is required")
	}

	// Validate lock configuration
	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}

	// Validate storage configuration
	if c.Storage.ReportDir == "" {
		return fmt.Errorf("storage.report_dir is required")
	}

	return nil
}
