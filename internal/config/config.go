// Package config holds the service configuration: YAML file with
// environment overrides for the secrets that never belong on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all reviewrouter configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Blob storage
	Store StoreConfig `yaml:"store"`

	// Generation provider
	AI AIConfig `yaml:"ai"`

	// Outbound GAS forwarding
	Forwarding ForwardingConfig `yaml:"forwarding"`

	// Stripe
	Billing BillingConfig `yaml:"billing"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	BaseURL         string `yaml:"base_url"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StoreConfig configures the SQLite blob database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AIConfig configures the generation provider.
type AIConfig struct {
	Provider string `yaml:"provider"` // rest, sdk
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ForwardingConfig configures outbound calls to the GAS endpoints.
type ForwardingConfig struct {
	Timeout string `yaml:"timeout"`
}

// BillingConfig configures the Stripe boundary. Keys are normally supplied
// through the environment, not the file.
type BillingConfig struct {
	SecretKey         string `yaml:"secret_key"`
	WebhookSecret     string `yaml:"webhook_secret"`
	PriceBasicMonthly string `yaml:"price_basic_monthly"`
	PriceProMonthly   string `yaml:"price_pro_monthly"`
	TrialDays         int64  `yaml:"trial_days"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "reviewrouter",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            ":8787",
			BaseURL:         "http://localhost:8787",
			ShutdownTimeout: "10s",
		},

		Store: StoreConfig{
			DatabasePath: "data/reviewrouter.db",
		},

		AI: AIConfig{
			Provider: "rest",
			Timeout:  "30s",
		},

		Forwarding: ForwardingConfig{
			Timeout: "15s",
		},

		Billing: BillingConfig{
			TrialDays: 7,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("REVIEWROUTER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if base := os.Getenv("REVIEWROUTER_BASE_URL"); base != "" {
		c.Server.BaseURL = base
	}
	if path := os.Getenv("REVIEWROUTER_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if level := os.Getenv("REVIEWROUTER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Stripe secrets always come from the environment when present.
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		c.Billing.SecretKey = key
	}
	if key := os.Getenv("STRIPE_WEBHOOK_SECRET"); key != "" {
		c.Billing.WebhookSecret = key
	}
	if price := os.Getenv("PRICE_ID_BASIC_MONTHLY"); price != "" {
		c.Billing.PriceBasicMonthly = price
	}
	if price := os.Getenv("PRICE_ID_PRO_MONTHLY"); price != "" {
		c.Billing.PriceProMonthly = price
	}
}

// GetAITimeout returns the generation timeout as a duration.
func (c *Config) GetAITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetForwardingTimeout returns the GAS forwarding timeout as a duration.
func (c *Config) GetForwardingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Forwarding.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidProviders lists all supported generation providers.
var ValidProviders = []string{"rest", "sdk"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured")
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("database path not configured")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.AI.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid ai provider: %s (valid: %v)", c.AI.Provider, ValidProviders)
	}

	return nil
}
