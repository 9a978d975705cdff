package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Wagering configuration
	StartingBalance    int64
	MaxBetPerMatch     int64         // Per-user stake cap on a single match
	CancellationWindow time.Duration // How long after placement a bet can be cancelled
	HouseCutPercent    int64         // Percentage withheld from winning payouts

	// Rating configuration
	BaseMMR int64 // Rating assigned to first-time players
	MMRStep int64 // Base rating swing per match before corrections

	// Metrics configuration
	MetricsPort string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Wagering defaults
		StartingBalance:    0,
		MaxBetPerMatch:     500000,
		CancellationWindow: 5 * time.Minute,
		HouseCutPercent:    5,

		// Rating defaults
		BaseMMR: 1600,
		MMRStep: 50,

		MetricsPort: os.Getenv("METRICS_PORT"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if cap := os.Getenv("MAX_BET_PER_MATCH"); cap != "" {
		if parsed, err := strconv.ParseInt(cap, 10, 64); err == nil {
			config.MaxBetPerMatch = parsed
		}
	}
	if window := os.Getenv("CANCELLATION_WINDOW"); window != "" {
		if parsed, err := time.ParseDuration(window); err == nil {
			config.CancellationWindow = parsed
		}
	}
	if cut := os.Getenv("HOUSE_CUT_PERCENT"); cut != "" {
		if parsed, err := strconv.ParseInt(cut, 10, 64); err == nil {
			config.HouseCutPercent = parsed
		}
	}
	if base := os.Getenv("BASE_MMR"); base != "" {
		if parsed, err := strconv.ParseInt(base, 10, 64); err == nil {
			config.BaseMMR = parsed
		}
	}
	if step := os.Getenv("MMR_STEP"); step != "" {
		if parsed, err := strconv.ParseInt(step, 10, 64); err == nil {
			config.MMRStep = parsed
		}
	}

	if config.MetricsPort == "" {
		config.MetricsPort = "9090"
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
