// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Base directory for datasets and the calculation cache
	StudyFile  string // Path to the YAML study definition
	LogLevel   string
	CacheDB    string // Path to the calculation cache database ("" disables caching)
	Pretty     bool   // Pretty console logging
	MaxWorkers int    // Upper bound on concurrent model fits (0 = serial)
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present so local runs don't need exported variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	dataDir := getEnv("QUANTFOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", dataDir, err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		StudyFile: getEnv("QUANTFOLIO_STUDY_FILE", filepath.Join(absDataDir, "study.yml")),
		LogLevel:  getEnv("QUANTFOLIO_LOG_LEVEL", "info"),
		Pretty:    getEnvBool("QUANTFOLIO_PRETTY_LOGS", true),
	}

	if getEnvBool("QUANTFOLIO_CACHE", true) {
		cfg.CacheDB = getEnv("QUANTFOLIO_CACHE_DB", filepath.Join(absDataDir, "calculations.db"))
	}

	workers := getEnv("QUANTFOLIO_MAX_WORKERS", "4")
	n, err := strconv.Atoi(workers)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid QUANTFOLIO_MAX_WORKERS %q", workers)
	}
	cfg.MaxWorkers = n

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
