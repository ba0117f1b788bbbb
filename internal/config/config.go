// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/report"
)

// Config holds server configuration.
type Config struct {
	DBPath         string        // empty = db.DefaultPath()
	Port           int
	DevMode        bool
	PageSize       int           // default catalog page size
	RecentListings int           // listings shown in the dashboard snapshot
	StatsTTL       time.Duration // how long a dashboard snapshot is reused
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:           8080,
		PageSize:       listing.DefaultPageSize,
		RecentListings: report.DefaultRecentListings,
		StatsTTL:       30 * time.Second,
	}
}

// FromEnv creates a Config from ESTATE_* environment variables.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.DBPath = os.Getenv("ESTATE_DB")
	cfg.DevMode = os.Getenv("ESTATE_DEV_MODE") == "true"

	var err error
	if cfg.Port, err = envInt("ESTATE_PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = envInt("ESTATE_PAGE_SIZE", cfg.PageSize); err != nil {
		return Config{}, err
	}
	if cfg.RecentListings, err = envInt("ESTATE_RECENT_LISTINGS", cfg.RecentListings); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("ESTATE_STATS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("ESTATE_STATS_TTL: invalid duration %q", v)
		}
		cfg.StatsTTL = d
	}

	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}
