// config.go - Configuration management for the review submission daemon
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration
type Config struct {
	// HTTP
	ListenAddr string `json:"listen_addr"`

	// Nullifier registry: Redis when a URL is set, JSON ledger otherwise
	RedisURL   string `json:"redis_url"`
	LedgerPath string `json:"ledger_path"`

	// Proof layer
	EnableProofs bool   `json:"enable_proofs"`
	KeyDir       string `json:"key_dir"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Rate limiting (token bucket per client)
	RateLimitBurst         int `json:"rate_limit_burst"`
	RateLimitRefill        int `json:"rate_limit_refill"`
	RateLimitPeriodSeconds int `json:"rate_limit_period_seconds"`

	// Shutdown
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:             ":8380",
		LedgerPath:             "nullifiers.json",
		EnableProofs:           false,
		KeyDir:                 "keys",
		LogLevel:               "info",
		LogFile:                "",
		RateLimitBurst:         10,
		RateLimitRefill:        1,
		RateLimitPeriodSeconds: 6,
		ShutdownTimeoutSeconds: 10,
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}

		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	if c.RedisURL == "" && c.LedgerPath == "" {
		return fmt.Errorf("either redis_url or ledger_path must be set")
	}
	if c.EnableProofs && c.KeyDir == "" {
		return fmt.Errorf("key_dir must be set when proofs are enabled")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_burst must be positive")
	}
	if c.RateLimitRefill <= 0 {
		return fmt.Errorf("rate_limit_refill must be positive")
	}
	if c.RateLimitPeriodSeconds <= 0 {
		return fmt.Errorf("rate_limit_period_seconds must be positive")
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("shutdown_timeout_seconds must be positive")
	}
	return nil
}
