// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"siding-takeoff/internal/errors"
	"siding-takeoff/internal/logging"
)

// DatabaseURLEnv overrides Rules.DatabaseURL when set
const DatabaseURLEnv = "TAKEOFF_DATABASE_URL"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Rules contains rule store and cache settings
	Rules RulesConfig `json:"rules"`

	// Pricing contains pricing catalog settings
	Pricing PricingConfig `json:"pricing"`

	// Estimate contains bill-level percentages
	Estimate EstimateConfig `json:"estimate"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// RulesConfig contains rule-related settings
type RulesConfig struct {
	// CacheTTLSeconds is how long a loaded ruleset is reused
	CacheTTLSeconds int `json:"cache_ttl_seconds"`

	// DatabaseDriver is "postgres" or "sqlite"
	DatabaseDriver string `json:"database_driver"`

	// DatabaseURL is the DSN; empty means no rule database
	DatabaseURL string `json:"database_url,omitempty"`

	// Table is the rules table name
	Table string `json:"table"`

	// File is an optional YAML ruleset used when no database is configured
	File string `json:"file,omitempty"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// CatalogPath is a YAML pricing catalog
	CatalogPath string `json:"catalog_path,omitempty"`

	// Table is the pricing table read from the rules database when set
	Table string `json:"table,omitempty"`

	// CacheTTLSeconds is how long a loaded catalog is reused
	CacheTTLSeconds int `json:"cache_ttl_seconds"`

	// LaborBurden lists statutory overhead percentages applied to base labor
	LaborBurden map[string]float64 `json:"labor_burden"`
}

// EstimateConfig contains bill-level markups
type EstimateConfig struct {
	// OverheadPercent applies to the material + labor subtotal
	OverheadPercent float64 `json:"overhead_percent"`

	// MarkupPercent applies to subtotal + overhead
	MarkupPercent float64 `json:"markup_percent"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowSkips prints rule skip reasons
	ShowSkips bool `json:"show_skips"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Rules: RulesConfig{
			CacheTTLSeconds: 300,
			DatabaseDriver:  "postgres",
			Table:           "auto_scope_rules",
			File:            filepath.Join(homeDir, ".siding-takeoff", "rules.yaml"),
		},
		Pricing: PricingConfig{
			CatalogPath:     filepath.Join(homeDir, ".siding-takeoff", "pricing.yaml"),
			CacheTTLSeconds: 300,
			LaborBurden: map[string]float64{
				"fica":          7.65,
				"futa":          0.6,
				"suta":          2.7,
				"workers_comp":  12.65,
				"liability_ins": 2.0,
			},
		},
		Estimate: EstimateConfig{
			OverheadPercent: 10,
			MarkupPercent:   15,
		},
		Output: OutputConfig{
			DefaultFormat: "table",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parse "+path, err)
	}

	if dsn := os.Getenv(DatabaseURLEnv); dsn != "" {
		cfg.Rules.DatabaseURL = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error
	if c.Rules.CacheTTLSeconds <= 0 {
		err = multierr.Append(err, errors.Config("rules.cache_ttl_seconds must be positive"))
	}
	switch c.Rules.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		err = multierr.Append(err, errors.Config(fmt.Sprintf("rules.database_driver %q is not supported", c.Rules.DatabaseDriver)))
	}
	if c.Pricing.CacheTTLSeconds <= 0 {
		err = multierr.Append(err, errors.Config("pricing.cache_ttl_seconds must be positive"))
	}
	for name, pct := range c.Pricing.LaborBurden {
		if pct < 0 {
			err = multierr.Append(err, errors.Config(fmt.Sprintf("pricing.labor_burden.%s is negative", name)))
		}
	}
	if c.Estimate.OverheadPercent < 0 {
		err = multierr.Append(err, errors.Config("estimate.overhead_percent is negative"))
	}
	if c.Estimate.MarkupPercent < 0 {
		err = multierr.Append(err, errors.Config("estimate.markup_percent is negative"))
	}
	return err
}

// RulesTTL returns the rule cache lifetime
func (c *Config) RulesTTL() time.Duration {
	return time.Duration(c.Rules.CacheTTLSeconds) * time.Second
}

// PricingTTL returns the catalog cache lifetime
func (c *Config) PricingTTL() time.Duration {
	return time.Duration(c.Pricing.CacheTTLSeconds) * time.Second
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
