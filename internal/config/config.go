package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// ML model serving endpoint. When empty the API falls back to the
	// deterministic local predictor (development only).
	ModelServerURL string
	ModelTimeout   time.Duration

	// Risk tier thresholds for no-show probability classification.
	RiskLowThreshold    float64
	RiskMediumThreshold float64
	RiskHighThreshold   float64

	// Scheduler behavior toggles.
	AutoOptimizeSchedule bool
	WaitlistAutoFill     bool
	MaxWaitlistSize      int
	ContactRetryAttempts int

	SnapshotHistoryLimit int
	CORSAllowedOrigins   []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ModelServerURL: getEnv("MODEL_SERVER_URL", ""),
		ModelTimeout:   getEnvAsDuration("MODEL_TIMEOUT", 10*time.Second),

		RiskLowThreshold:    getEnvAsFloat("RISK_LOW_THRESHOLD", 0.3),
		RiskMediumThreshold: getEnvAsFloat("RISK_MEDIUM_THRESHOLD", 0.6),
		RiskHighThreshold:   getEnvAsFloat("RISK_HIGH_THRESHOLD", 0.8),

		AutoOptimizeSchedule: getEnvAsBool("AUTO_OPTIMIZE_SCHEDULE", true),
		WaitlistAutoFill:     getEnvAsBool("WAITLIST_AUTO_FILL", true),
		MaxWaitlistSize:      getEnvAsInt("MAX_WAITLIST_SIZE", 100),
		ContactRetryAttempts: getEnvAsInt("CONTACT_RETRY_ATTEMPTS", 3),

		SnapshotHistoryLimit: getEnvAsInt("SNAPSHOT_HISTORY_LIMIT", 20),
		CORSAllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
