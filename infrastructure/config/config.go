package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        int
	Environment string

	// Storage configuration
	DataDir string

	// Cache configuration
	FileCacheTTL          time.Duration
	SearchCacheTTL        time.Duration
	SearchCacheMaxEntries int

	// Search configuration
	ParallelThreshold int

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 3030),
		Environment: getEnv("ENVIRONMENT", "development"),

		DataDir: getEnv("DATA_DIR", "."),

		FileCacheTTL:          time.Duration(getEnvInt("FILE_CACHE_TTL_SECONDS", 300)) * time.Second,
		SearchCacheTTL:        time.Duration(getEnvInt("SEARCH_CACHE_TTL_SECONDS", 300)) * time.Second,
		SearchCacheMaxEntries: getEnvInt("SEARCH_CACHE_MAX_ENTRIES", 100),

		ParallelThreshold: getEnvInt("PARALLEL_THRESHOLD", 1000),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.SearchCacheMaxEntries <= 0 {
		return fmt.Errorf("SEARCH_CACHE_MAX_ENTRIES must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// File-system layout. The registry file enumerates users; each user owns a
// directory under users/; each database is one JSON file in it.

// UsersFile returns the path of the user registry file
func (c *Config) UsersFile() string {
	return filepath.Join(c.DataDir, "users.json")
}

// UsersDir returns the root directory holding per-user directories
func (c *Config) UsersDir() string {
	return filepath.Join(c.DataDir, "users")
}

// UserDir returns the directory owned by a user
func (c *Config) UserDir(username string) string {
	return filepath.Join(c.UsersDir(), username)
}

// DatabasePath returns the absolute location of a user's database file
func (c *Config) DatabasePath(username, dbName string) string {
	return filepath.Join(c.UserDir(username), dbName+".json")
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
