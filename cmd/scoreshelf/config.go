package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL string
	Addr        string
	SecretKey   string
	SessionTTL  time.Duration

	LogLevel  string
	LogFormat string

	// Blob storage: "local" stores files under BlobDir, "bucket" talks to a
	// remote object bucket.
	BlobBackend      string
	BlobDir          string
	BucketURL        string
	BucketName       string
	BucketServiceKey string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return Config{}, errors.New("SECRET_KEY env var is required")
	}

	ttlHours, err := strconv.Atoi(envOrDefault("SESSION_TTL_HOURS", "168"))
	if err != nil || ttlHours <= 0 {
		return Config{}, errors.New("SESSION_TTL_HOURS must be a positive integer")
	}

	cfg := Config{
		DatabaseURL:      dsn,
		Addr:             fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		SecretKey:        secret,
		SessionTTL:       time.Duration(ttlHours) * time.Hour,
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		BlobBackend:      envOrDefault("BLOB_BACKEND", "local"),
		BlobDir:          envOrDefault("BLOB_DIR", "files"),
		BucketURL:        os.Getenv("BUCKET_URL"),
		BucketName:       os.Getenv("BUCKET_NAME"),
		BucketServiceKey: os.Getenv("BUCKET_SERVICE_KEY"),
	}

	switch cfg.BlobBackend {
	case "local":
	case "bucket":
		if cfg.BucketURL == "" || cfg.BucketName == "" {
			return Config{}, errors.New("BUCKET_URL and BUCKET_NAME are required for the bucket backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
