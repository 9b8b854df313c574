package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nutrihelper/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Resolver      ResolverConfig      `mapstructure:"resolver"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenAIConfig holds the generative provider configuration.
// An empty APIKey disables the provider.
type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	Timeout            time.Duration `mapstructure:"timeout"`
	ConsiderQuantities bool          `mapstructure:"consider_quantities"`
}

// OpenFoodFactsConfig holds the remote food database configuration
type OpenFoodFactsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageSize          int           `mapstructure:"page_size"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CacheConfig holds the remote lookup memo cache configuration
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// StorageConfig holds the paths of the flat files
type StorageConfig struct {
	CustomFoodsPath string `mapstructure:"custom_foods_path"`
	HistoryPath     string `mapstructure:"history_path"`
	ErrorLogPath    string `mapstructure:"error_log_path"`
}

// ResolverConfig holds lookup policy configuration
type ResolverConfig struct {
	DefaultProvider              string `mapstructure:"default_provider"`
	FallbackOnAnyGenerativeError bool   `mapstructure:"fallback_on_any_generative_error"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from a .env file, environment variables and config files.
// configFile overrides the config search paths when set.
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutrihelper/")
	}

	// NUTRI_OPENAI_API_KEY -> openai.api_key
	v.SetEnvPrefix("NUTRI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the plain OPENAI_API_KEY is honoured as well
	if err := v.BindEnv("openai.api_key", "NUTRI_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
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

// loadEnvFile loads .env from the working directory without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.timeout", "30s")
	v.SetDefault("openai.consider_quantities", false)

	// OpenFoodFacts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout", "10s")
	v.SetDefault("openfoodfacts.page_size", 3)
	v.SetDefault("openfoodfacts.user_agent", "NutriHelper/1.0")
	v.SetDefault("openfoodfacts.requests_per_minute", 10)

	// Cache defaults
	v.SetDefault("cache.size", 256)

	// Storage defaults
	v.SetDefault("storage.custom_foods_path", "custom_foods.json")
	v.SetDefault("storage.history_path", "food_history.txt")
	v.SetDefault("storage.error_log_path", "openai_errors.log")

	// Resolver defaults
	v.SetDefault("resolver.default_provider", string(domain.PreferRemote))
	v.SetDefault("resolver.fallback_on_any_generative_error", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive, got: %d", config.Cache.Size)
	}

	if _, err := domain.ParsePreference(config.Resolver.DefaultProvider); err != nil {
		return fmt.Errorf("resolver default_provider: %w", err)
	}

	if config.Storage.CustomFoodsPath == "" || config.Storage.HistoryPath == "" || config.Storage.ErrorLogPath == "" {
		return fmt.Errorf("storage paths must not be empty")
	}

	if config.OpenAI.Timeout <= 0 {
		return fmt.Errorf("openai timeout must be positive, got: %s", config.OpenAI.Timeout)
	}

	if config.OpenFoodFacts.Timeout <= 0 {
		return fmt.Errorf("openfoodfacts timeout must be positive, got: %s", config.OpenFoodFacts.Timeout)
	}

	if config.OpenFoodFacts.PageSize <= 0 {
		return fmt.Errorf("openfoodfacts page_size must be positive, got: %d", config.OpenFoodFacts.PageSize)
	}

	if config.OpenFoodFacts.RequestsPerMinute <= 0 {
		return fmt.Errorf("openfoodfacts requests_per_minute must be positive, got: %d", config.OpenFoodFacts.RequestsPerMinute)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}

// HasOpenAI reports whether a generative provider credential is configured
func (c *Config) HasOpenAI() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}
