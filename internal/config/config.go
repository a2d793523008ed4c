package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DataDir      string
	DatabasePath string
	LogLevel     string
	DevMode      bool

	// Remote backend
	BackendURL   string
	BackendWSURL string // optional change-hint websocket

	// Auth service
	AuthURL          string
	AuthRefreshToken string

	// Background sync; zero disables the scheduled job
	SyncInterval time.Duration

	// Cloud backup (Cloudflare R2 / any S3-compatible store); backup is
	// enabled only when all four are set
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DataDir:           dataDir,
		DatabasePath:      getEnv("DATABASE_PATH", filepath.Join(dataDir, "lunaria.db")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		BackendURL:        getEnv("BACKEND_URL", ""),
		BackendWSURL:      getEnv("BACKEND_WS_URL", ""),
		AuthURL:           getEnv("AUTH_URL", ""),
		AuthRefreshToken:  getEnv("AUTH_REFRESH_TOKEN", ""),
		SyncInterval:      getEnvAsDuration("SYNC_INTERVAL", 0),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:          getEnv("R2_BUCKET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.AuthURL == "" {
		return fmt.Errorf("AUTH_URL is required")
	}
	return nil
}

// BackupEnabled reports whether cloud backup credentials are complete
func (c *Config) BackupEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2Bucket != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
