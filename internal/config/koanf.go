// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/murmur/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:         "badger",
			Path:            "/data/murmur",
			SyncWrites:      false,
			ConflictRetries: 16,
			GCInterval:      10 * time.Minute,
			GCDiscardRatio:  0.5,
		},
		Push: PushConfig{
			Transport:           "log",
			Timeout:             5 * time.Second,
			RateLimit:           50,
			RateBurst:           100,
			BreakerFailures:     5,
			BreakerTimeout:      30 * time.Second,
			BreakerInterval:     time.Minute,
			BreakerHalfOpenReqs: 1,
		},
		Fanout: FanoutConfig{
			Workers:   8,
			QueueSize: 1024,
		},
		Recommend: RecommendConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
			CacheEnabled:    false,
			CacheSize:       256,
			CacheTTL:        30 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_request_timeout":  "server.request_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"storage_backend":          "storage.backend",
	"badger_path":              "storage.path",
	"badger_sync_writes":       "storage.sync_writes",
	"storage_conflict_retries": "storage.conflict_retries",
	"badger_gc_interval":       "storage.gc_interval",
	"badger_gc_discard_ratio":  "storage.gc_discard_ratio",
	"storage_seed_file":        "storage.seed_file",
	"badger_memtable_size":     "storage.memtable_size",

	"push_transport":                  "push.transport",
	"push_webhook_url":                "push.webhook_url",
	"push_server_key":                 "push.server_key",
	"push_timeout":                    "push.timeout",
	"push_rate_limit":                 "push.rate_limit",
	"push_rate_burst":                 "push.rate_burst",
	"push_breaker_failures":           "push.breaker_failures",
	"push_breaker_timeout":            "push.breaker_timeout",
	"push_breaker_interval":           "push.breaker_interval",
	"push_breaker_half_open_requests": "push.breaker_half_open_requests",

	"fanout_workers":    "fanout.workers",
	"fanout_queue_size": "fanout.queue_size",

	"recommend_default_page_size": "recommend.default_page_size",
	"recommend_max_page_size":     "recommend.max_page_size",
	"recommend_cache_enabled":     "recommend.cache_enabled",
	"recommend_cache_size":        "recommend.cache_size",
	"recommend_cache_ttl":         "recommend.cache_ttl",

	"auth_mode":          "security.auth_mode",
	"jwt_secret":         "security.jwt_secret",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":       "security.cors_origins",
	"authz_policy_file":  "security.authz_policy_file",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
