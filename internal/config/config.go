package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the signaling service.
type Config struct {
	Port string
	Env  string

	// DatabaseURL is the PostgreSQL DSN. When empty the service falls back
	// to a local SQLite file, which is enough for development.
	DatabaseURL string
	SQLitePath  string

	// RedisURL enables the live event feed; empty disables it.
	RedisURL string

	// JWTSecret signs guest identity tokens.
	JWTSecret string

	// SignalTTL is the mailbox retention window.
	SignalTTL time.Duration
	// SweepInterval is how often the retention sweeper runs.
	SweepInterval time.Duration
}

// Load reads configuration from the environment, with a .env file honored in
// development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "onesuite.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-only-secret"),
		SignalTTL:     getDuration("SIGNAL_TTL_MINUTES", 60),
		SweepInterval: getDuration("SWEEP_INTERVAL_MINUTES", 10),
	}

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "dev-only-secret" {
			log.Fatal("JWT_SECRET is required in production")
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallbackMinutes int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
		log.Printf("Warning: invalid %s=%q, using default", key, v)
	}
	return time.Duration(fallbackMinutes) * time.Minute
}
