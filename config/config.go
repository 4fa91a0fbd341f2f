package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig controls where foods come from and how phrases are matched
type CatalogConfig struct {
	Path           string  `mapstructure:"path"` // empty uses the built-in catalog
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	SampleSize     int     `mapstructure:"sample_size"`
}

// DatabaseConfig holds the SQLite location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LLMConfig holds chat-completions API configuration
type LLMConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealtrack/")

	// MEALTRACK_SERVER_PORT -> server.port
	v.SetEnvPrefix("MEALTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory. Variables already set
// in the environment win; a missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Catalog defaults
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.fuzzy_threshold", 0.6)
	v.SetDefault("catalog.sample_size", 15)

	// Database defaults
	v.SetDefault("database.path", "data/mealtrack.db")

	// LLM defaults
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.requests_per_minute", 60)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "1m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.FuzzyThreshold <= 0 || config.Catalog.FuzzyThreshold > 1 {
		return fmt.Errorf("catalog fuzzy threshold must be in (0, 1], got: %g", config.Catalog.FuzzyThreshold)
	}

	if config.Catalog.SampleSize < 0 {
		return fmt.Errorf("catalog sample size must not be negative, got: %d", config.Catalog.SampleSize)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required (set MEALTRACK_DATABASE_PATH)")
	}

	if config.LLM.Enabled && config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required when llm is enabled (set MEALTRACK_LLM_API_KEY)")
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", config.Log.Level)
	}

	return nil
}
