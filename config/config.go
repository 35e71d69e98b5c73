// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// AppConfig holds all configuration for the server.
type AppConfig struct {
	Port         int
	DatabasePath string
	LogLevel     string
	Environment  string
	TierCronSpec string         // when approved affiliates are re-evaluated
	Location     *time.Location // "today" for schedules and tier windows
	CORSOrigins  []string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Port = 8080
	if s := os.Getenv("PORT"); s != "" {
		cfg.Port, err = strconv.Atoi(s)
		if err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", s)
		}
	}

	cfg.DatabasePath = os.Getenv("DATABASE_PATH")
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "backoffice.db"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.TierCronSpec = os.Getenv("TIER_CRON_SPEC")
	if cfg.TierCronSpec == "" {
		cfg.TierCronSpec = "15 0 * * *" // 00:15 daily
	}
	if _, err := cron.ParseStandard(cfg.TierCronSpec); err != nil {
		return nil, fmt.Errorf("invalid TIER_CRON_SPEC: %w", err)
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(s, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// IsProduction reports whether logs should be structured for ingestion.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}
