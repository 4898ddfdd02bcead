// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/murmur/internal/config"
)

// Config holds engine settings.
type Config struct {
	Limits LimitsConfig
	Cache  CacheConfig
}

// LimitsConfig bounds page sizes.
type LimitsConfig struct {
	// DefaultPageSize is used by callers that do not ask for a size.
	DefaultPageSize int
	// MaxPageSize caps larger requests.
	MaxPageSize int
}

// CacheConfig configures response caching.
type CacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
		},
		Cache: CacheConfig{
			Enabled: false,
			Size:    256,
			TTL:     30 * time.Second,
		},
	}
}

// ConfigFrom maps the recommend config section.
func ConfigFrom(cfg *config.RecommendConfig) *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
		Cache: CacheConfig{
			Enabled: cfg.CacheEnabled,
			Size:    cfg.CacheSize,
			TTL:     cfg.CacheTTL,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Limits.DefaultPageSize < 1 {
		errs = append(errs, fmt.Errorf("default page size must be at least 1, got %d", c.Limits.DefaultPageSize))
	}
	if c.Limits.MaxPageSize < c.Limits.DefaultPageSize {
		errs = append(errs, fmt.Errorf("max page size (%d) must be >= default page size (%d)",
			c.Limits.MaxPageSize, c.Limits.DefaultPageSize))
	}
	if c.Cache.Enabled {
		if c.Cache.Size < 1 {
			errs = append(errs, fmt.Errorf("cache size must be at least 1 when caching is enabled"))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache TTL must be positive when caching is enabled"))
		}
	}
	return errors.Join(errs...)
}
