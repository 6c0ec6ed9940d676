// Package config loads process configuration from the environment,
// warning and defaulting on every optional var the way the teacher's
// platform/config.LoadConfig does.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL string
	Port        string

	// APIKey is the shared secret POST /journal and POST /outbox/process
	// require in the X-API-Key header. An empty value is a valid load
	// (the auth middleware, not LoadConfig, turns that into a 500
	// misconfiguration at request time), since the spec treats a
	// missing secret as a per-request condition, not a startup failure.
	APIKey string

	// SystemOverdraft is the set of account ids exempt from the
	// non-negative bucket invariant, default {ESCROW_POOL}.
	SystemOverdraft map[string]bool

	// ChaosProbability is the C4 chaos hook's p in [0,1], default 0.
	ChaosProbability float64

	OutboxTargetURL  string
	OutboxTargetHost string
	OutboxTargetPath string
	OutboxMaxBatch   int
	OutboxTimeoutMs  int
	OutboxMaxBackoff int

	CronEnabled    bool
	CronIntervalMs int

	MigrationsPath string
}

// LoadConfig loads configuration from environment variables. It looks
// for a .env file first.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("Warning: DATABASE_URL environment variable not set.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", port)
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		log.Println("Warning: API_KEY environment variable not set. POST /journal and POST /outbox/process will 500 until it is configured.")
	}

	overdraft := parseAccountSet(os.Getenv("SYSTEM_OVERDRAFT"), []string{"ESCROW_POOL"})

	chaosProb := parseFloat(os.Getenv("CHAOS_PROBABILITY"), 0, "CHAOS_PROBABILITY")
	if chaosProb < 0 || chaosProb > 1 {
		log.Printf("Warning: CHAOS_PROBABILITY (%v) out of [0,1]. Defaulting to 0.\n", chaosProb)
		chaosProb = 0
	}

	outboxTargetURL := os.Getenv("OUTBOX_TARGET_URL")
	outboxTargetHost := os.Getenv("OUTBOX_TARGET_HOST")
	outboxTargetPath := os.Getenv("OUTBOX_TARGET_PATH")

	outboxMaxBatch := parseInt(os.Getenv("OUTBOX_MAX_BATCH"), 50, "OUTBOX_MAX_BATCH")
	outboxTimeoutMs := parseInt(os.Getenv("OUTBOX_TIMEOUT_MS"), 5000, "OUTBOX_TIMEOUT_MS")
	outboxMaxBackoff := parseInt(os.Getenv("OUTBOX_MAX_BACKOFF_MS"), 60000, "OUTBOX_MAX_BACKOFF_MS")

	cronEnabled := parseBool(os.Getenv("CRON_ENABLED"), false, "CRON_ENABLED")
	cronIntervalMs := parseInt(os.Getenv("CRON_INTERVAL_MS"), 10000, "CRON_INTERVAL_MS")

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://migrations"
	}

	return &Config{
		DatabaseURL:      dbURL,
		Port:             port,
		APIKey:           apiKey,
		SystemOverdraft:  overdraft,
		ChaosProbability: chaosProb,
		OutboxTargetURL:  outboxTargetURL,
		OutboxTargetHost: outboxTargetHost,
		OutboxTargetPath: outboxTargetPath,
		OutboxMaxBatch:   outboxMaxBatch,
		OutboxTimeoutMs:  outboxTimeoutMs,
		OutboxMaxBackoff: outboxMaxBackoff,
		CronEnabled:      cronEnabled,
		CronIntervalMs:   cronIntervalMs,
		MigrationsPath:   migrationsPath,
	}, nil
}

func parseAccountSet(raw string, fallback []string) map[string]bool {
	ids := fallback
	if raw != "" {
		ids = strings.Split(raw, ",")
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = true
		}
	}
	return set
}

func parseFloat(raw string, fallback float64, name string) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid value for %s (%q). Defaulting to %v.\n", name, raw, fallback)
		return fallback
	}
	return v
}

func parseInt(raw string, fallback int, name string) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid value for %s (%q). Defaulting to %d.\n", name, raw, fallback)
		return fallback
	}
	return v
}

func parseBool(raw string, fallback bool, name string) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid value for %s (%q). Defaulting to %v.\n", name, raw, fallback)
		return fallback
	}
	return v
}
