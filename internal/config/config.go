package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Database
	DatabaseURL string

	// External detector services
	BeatDetectorURL        string
	ChordDetectorURL       string
	DetectorTimeoutSeconds int

	// Alignment core
	NormalizerCacheSize int

	// Observability
	SentryDSN string
}

func Load() *Config {
	return &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		BeatDetectorURL:        getEnv("BEAT_DETECTOR_URL", "http://localhost:9001"),
		ChordDetectorURL:       getEnv("CHORD_DETECTOR_URL", "http://localhost:9002"),
		DetectorTimeoutSeconds: getEnvInt("DETECTOR_TIMEOUT_SECONDS", 120),
		NormalizerCacheSize:    getEnvInt("NORMALIZER_CACHE_SIZE", 512),
		SentryDSN:              getEnv("SENTRY_DSN", ""),
	}
}

// DetectorTimeout returns the per-request timeout for detector calls.
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.DetectorTimeoutSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
