package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage configuration
	StorageDriver string // "sqlite" or "memory"
	SQLitePath    string

	// Generation backend configuration
	ProvidersFile     string
	GenerationAPIKey  string
	GenerationTimeout time.Duration
	GenerationRetries int

	// Embedding configuration
	EmbeddingDimensions int

	// Query cache
	CacheTTL time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		// Storage configuration
		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "ideaforge.db"),

		// Generation backend configuration
		ProvidersFile:     getEnv("PROVIDERS_FILE", "providers.yaml"),
		GenerationAPIKey:  getEnv("GENERATION_API_KEY", ""),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		GenerationRetries: getEnvInt("GENERATION_RETRIES", 3),

		// Embedding configuration
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 256),

		// Query cache
		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_DRIVER=sqlite")
		}
	case "memory":
		// Ephemeral mode needs no storage settings.
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want sqlite or memory)", c.StorageDriver)
	}

	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.GenerationRetries < 0 {
		return fmt.Errorf("GENERATION_RETRIES must not be negative")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}

	if c.Environment == "production" && c.ProvidersFile == "" {
		return fmt.Errorf("PROVIDERS_FILE is required in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
