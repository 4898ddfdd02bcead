// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLength is the shortest HMAC secret accepted in jwt mode.
const minJWTSecretLength = 32

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{
		"json": true, "console": true,
	}
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	for _, check := range []func() error{
		c.validateServer,
		c.validateStorage,
		c.validatePush,
		c.validateFanout,
		c.validateRecommend,
		c.validateSecurity,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "memory":
		return nil
	case "badger":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_BACKEND=badger")
		}
		if c.Storage.ConflictRetries < 1 {
			return fmt.Errorf("STORAGE_CONFLICT_RETRIES must be at least 1")
		}
		if c.Storage.GCInterval > 0 && (c.Storage.GCDiscardRatio <= 0 || c.Storage.GCDiscardRatio >= 1) {
			return fmt.Errorf("BADGER_GC_DISCARD_RATIO must be between 0 and 1 (exclusive)")
		}
		if c.Storage.MemTableSize < 0 {
			return fmt.Errorf("BADGER_MEMTABLE_SIZE must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: memory, badger")
	}
}

func (c *Config) validatePush() error {
	switch c.Push.Transport {
	case "log":
	case "webhook":
		u, err := url.Parse(c.Push.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("PUSH_WEBHOOK_URL must be an http(s) URL when PUSH_TRANSPORT=webhook")
		}
	default:
		return fmt.Errorf("PUSH_TRANSPORT must be one of: log, webhook")
	}
	if c.Push.Timeout <= 0 {
		return fmt.Errorf("PUSH_TIMEOUT must be positive")
	}
	if c.Push.RateLimit < 0 {
		return fmt.Errorf("PUSH_RATE_LIMIT must not be negative")
	}
	if c.Push.RateLimit > 0 && c.Push.RateBurst < 1 {
		return fmt.Errorf("PUSH_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Push.BreakerFailures == 0 {
		return fmt.Errorf("PUSH_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateFanout() error {
	if c.Fanout.Workers < 1 {
		return fmt.Errorf("FANOUT_WORKERS must be at least 1")
	}
	if c.Fanout.QueueSize < 0 {
		return fmt.Errorf("FANOUT_QUEUE_SIZE must not be negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.MaxPageSize < 1 {
		return fmt.Errorf("RECOMMEND_MAX_PAGE_SIZE must be at least 1")
	}
	if r.DefaultPageSize < 1 || r.DefaultPageSize > r.MaxPageSize {
		return fmt.Errorf("RECOMMEND_DEFAULT_PAGE_SIZE must be between 1 and RECOMMEND_MAX_PAGE_SIZE")
	}
	if r.CacheEnabled && (r.CacheSize < 1 || r.CacheTTL <= 0) {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE and RECOMMEND_CACHE_TTL must be positive when the cache is enabled")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
	case "none":
	default:
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
