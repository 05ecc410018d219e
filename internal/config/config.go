package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Lock backends
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lark     LarkConfig     `mapstructure:"lark"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Lock     LockConfig     `mapstructure:"lock"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the connection used by the redis lock backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LarkConfig holds Lark API configuration. Notifications are disabled
// when app_id is empty.
type LarkConfig struct {
	AppID          string `mapstructure:"app_id"`
	AppSecret      string `mapstructure:"app_secret"`
	BaseURL        string `mapstructure:"base_url"`
	ApproverChatID string `mapstructure:"approver_chat_id"`
	UserIDType     string `mapstructure:"user_id_type"`
}

// OpenAIConfig holds OpenAI API configuration. Settlement review is
// disabled when api_key is empty.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	PromptsPath string        `mapstructure:"prompts_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PolicyConfig holds the travel policy. Amounts are decimal strings.
type PolicyConfig struct {
	HomeCityID           string `mapstructure:"home_city_id"`
	HomeCountryID        string `mapstructure:"home_country_id"`
	Currency             string `mapstructure:"currency"`
	DomesticPerDiem      string `mapstructure:"domestic_per_diem"`
	InternationalPerDiem string `mapstructure:"international_per_diem"`
}

// LockConfig selects the per-trip lock backend
type LockConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Wait    time.Duration `mapstructure:"wait"`
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	ReportDir string `mapstructure:"report_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is applied first and never
// overrides variables already set in the process environment.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/business_trip.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Lark defaults
	v.SetDefault("lark.user_id_type", "user_id")

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 60*time.Second)

	// Policy defaults
	v.SetDefault("policy.home_city_id", "WAW")
	v.SetDefault("policy.home_country_id", "PL")
	v.SetDefault("policy.currency", "PLN")
	v.SetDefault("policy.domestic_per_diem", "45.00")
	v.SetDefault("policy.international_per_diem", "200.00")

	// Lock defaults
	v.SetDefault("lock.backend", LockBackendMemory)
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.wait", 5*time.Second)

	// Storage defaults
	v.SetDefault("storage.report_dir", "data/reports")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":              "SERVER_PORT",
		"database.path":            "DATABASE_PATH",
		"redis.addr":               "REDIS_ADDR",
		"redis.password":           "REDIS_PASSWORD",
		"lark.app_id":              "LARK_APP_ID",
		"lark.app_secret":          "LARK_APP_SECRET",
		"lark.approver_chat_id":    "LARK_APPROVER_CHAT_ID",
		"openai.api_key":           "OPENAI_API_KEY",
		"openai.base_url":          "OPENAI_BASE_URL",
		"lock.backend":             "LOCK_BACKEND",
		"logger.level":             "LOG_LEVEL",
		"policy.home_city_id":      "POLICY_HOME_CITY_ID",
		"policy.home_country_id":   "POLICY_HOME_COUNTRY_ID",
		"policy.domestic_per_diem": "POLICY_DOMESTIC_PER_DIEM",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
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
	if c.Policy.Currency == "" {
		return fmt.Errorf("policy.currency is required")
	}
	if _, err := c.Policy.Rates(); err != nil {
		return err
	}

	// Validate lock backend
	switch c.Lock.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis lock backend")
		}
		if c.Lock.TTL <= 0 {
			return fmt.Errorf("lock.ttl must be positive")
		}
	default:
		return fmt.Errorf("lock.backend must be %q or %q, got %q", LockBackendMemory, LockBackendRedis, c.Lock.Backend)
	}

	// Lark is optional, but a half-configured app is a mistake
	if c.Lark.AppID != "" && c.Lark.AppSecret == "" {
		return fmt.Errorf("lark.app_secret is required when lark.app_id is set")
	}

	return nil
}

// PerDiemRates are the parsed policy fallbacks
type PerDiemRates struct {
	Domestic      decimal.Decimal
	International decimal.Decimal
}

// Rates parses the per-diem fallbacks
func (p PolicyConfig) Rates() (PerDiemRates, error) {
	domestic, err := parseAmount("policy.domestic_per_diem", p.DomesticPerDiem)
	if err != nil {
		return PerDiemRates{}, err
	}
	international, err := parseAmount("policy.international_per_diem", p.InternationalPerDiem)
	if err != nil {
		return PerDiemRates{}, err
	}
	return PerDiemRates{Domestic: domestic, International: international}, nil
}

func parseAmount(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a decimal amount: %q", key, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// LarkEnabled reports whether Lark notifications are configured
func (c *Config) LarkEnabled() bool {
	return c.Lark.AppID != ""
}

// ReviewEnabled reports whether AI settlement review is configured
func (c *Config) ReviewEnabled() bool {
	return c.OpenAI.APIKey != ""
}
