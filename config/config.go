// Package config loads the finsim command configuration and scenarios.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvLogLevel = "FINSIM_LOG_LEVEL"
	EnvRulesDir = "FINSIM_RULES_DIR"
	EnvSeed     = "FINSIM_SEED"
	EnvRuns     = "FINSIM_RUNS"
	EnvPretty   = "FINSIM_PRETTY"
)

// Config holds the command configuration.
type Config struct {
	LogLevel string
	RulesDir string
	Seed     uint64
	Runs     int
	Pretty   bool
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory if there is one.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		LogLevel: getEnv(EnvLogLevel, "info"),
		RulesDir: getEnv(EnvRulesDir, "data/rules"),
		Seed:     getEnvAsUint(EnvSeed, 1),
		Runs:     getEnvAsInt(EnvRuns, 1),
		Pretty:   getEnvAsBool(EnvPretty, true),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.RulesDir == "" {
		return fmt.Errorf("%s is required", EnvRulesDir)
	}
	if c.Runs < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", EnvRuns, c.Runs)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%s: unknown level %q", EnvLogLevel, c.LogLevel)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
