// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (inventory client, list engine) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This keeps the application Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mjoris/plaquier/pkg/query"
)

// # Configuration Schema

// Config holds all runtime configuration for the Plaquier console service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote inventory service (store of record for conceptions and plates)
	InventoryBaseURL string        `env:"INVENTORY_BASE_URL,required"`
	InventoryTimeout time.Duration `env:"INVENTORY_TIMEOUT" envDefault:"15s"`

	// DebounceWindow is the quiet period that coalesces rapid filter edits
	// into a single upstream query. Surfaces observed 250–400ms; 300ms default.
	DebounceWindow time.Duration `env:"DEBOUNCE_WINDOW" envDefault:"300ms"`

	// PageSize is the default page size for conception and plate listings.
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`

	// Cross-Origin Resource Sharing: comma-separated extra allowed origins.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedExtraOrigins returns the additional CORS origins beyond the defaults.
func (c *Config) AllowedExtraOrigins() []string {
	return query.StringSlice(c.ExtraOrigins)
}
