// Package config loads application configuration from the environment.
// A local .env file is honored in development; real deployments set the
// variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the API server.
type Config struct {
	Port      string
	JWTSecret string

	DB     DBConfig
	Upload UploadConfig

	// NotifierSchedule is a cron expression for the daily renewal scan.
	NotifierSchedule string
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// UploadConfig selects and configures the file storage backend.
type UploadConfig struct {
	Dir     string // local storage directory
	BaseURL string // public URL prefix for locally served files

	// R2 / S3-compatible settings. Storage switches to object storage
	// when AccountID is set.
	R2AccountID string
	R2AccessKey string
	R2SecretKey string
	R2Bucket    string
	R2PublicURL string
}

// Load reads configuration from the environment, applying defaults for
// everything except the database URL and JWT secret.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	maxConns, err := getEnvAsInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvAsInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: jwtSecret,
		DB: DBConfig{
			URL:      dbURL,
			MaxConns: int32(maxConns),
			MinConns: int32(minConns),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			BaseURL:     getEnv("UPLOAD_BASE_URL", "/api/files"),
			R2AccountID: os.Getenv("R2_ACCOUNT_ID"),
			R2AccessKey: os.Getenv("R2_ACCESS_KEY"),
			R2SecretKey: os.Getenv("R2_SECRET_KEY"),
			R2Bucket:    os.Getenv("R2_BUCKET"),
			R2PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
		NotifierSchedule: getEnv("NOTIFIER_SCHEDULE", "0 8 * * *"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, valueStr)
	}
	return value, nil
}
