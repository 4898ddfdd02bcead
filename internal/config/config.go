// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package config loads Murmur configuration with Koanf v2.
//
// Sources are layered, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/murmur/config.yaml)
//  3. Environment variables listed in envMappings
//
// Unmapped environment variables are ignored.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Push      PushConfig      `koanf:"push"`
	Fanout    FanoutConfig    `koanf:"fanout"`
	Recommend RecommendConfig `koanf:"recommend"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"` // per-request deadline applied to store calls
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig selects and tunes the engagement store.
type StorageConfig struct {
	// Backend is "memory" or "badger".
	Backend string `koanf:"backend"`
	// Path is the Badger directory (badger backend only).
	Path string `koanf:"path"`
	// SyncWrites fsyncs every Badger commit.
	SyncWrites bool `koanf:"sync_writes"`
	// ConflictRetries bounds the compare-and-set loop on transaction conflicts.
	ConflictRetries int `koanf:"conflict_retries"`
	// GCInterval is how often the value log GC runs; 0 disables it.
	GCInterval time.Duration `koanf:"gc_interval"`
	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
	// MemTableSize caps one Badger transaction (about 15% of it), which in
	// turn caps the follower count of one notification batch. 0 keeps the
	// Badger default of 64MB.
	MemTableSize int64 `koanf:"memtable_size"`
	// SeedFile is an optional JSON fixture loaded at startup.
	SeedFile string `koanf:"seed_file"`
}

// PushConfig configures best-effort push delivery.
type PushConfig struct {
	// Transport is "log" (development) or "webhook".
	Transport  string        `koanf:"transport"`
	WebhookURL string        `koanf:"webhook_url"`
	ServerKey  string        `koanf:"server_key"`
	Timeout    time.Duration `koanf:"timeout"`

	// RateLimit is pushes per second across all recipients; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	BreakerFailures     uint32        `koanf:"breaker_failures"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerHalfOpenReqs uint32        `koanf:"breaker_half_open_requests"`
}

// FanoutConfig sizes the push worker pool.
type FanoutConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheSize       int           `koanf:"cache_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	// AuthMode is "jwt" or "none". In "none" mode the caller identity is read
	// from the X-User-ID header, for local development only.
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	// AuthzPolicyFile replaces the built-in post authorization policy.
	AuthzPolicyFile string `koanf:"authz_policy_file"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
