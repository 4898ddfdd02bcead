// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestDefaultConfig verifies the built-in defaults.
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Push.Transport != "log" {
		t.Errorf("Push.Transport = %q, want log", cfg.Push.Transport)
	}
	if cfg.Recommend.DefaultPageSize != 10 {
		t.Errorf("Recommend.DefaultPageSize = %d, want 10", cfg.Recommend.DefaultPageSize)
	}
	if cfg.Recommend.CacheEnabled {
		t.Error("Recommend.CacheEnabled should be false by default")
	}
	if cfg.Fanout.Workers != 8 {
		t.Errorf("Fanout.Workers = %d, want 8", cfg.Fanout.Workers)
	}
}

// TestLoad_EnvOverrides covers the env layer including durations and slices.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PUSH_TIMEOUT", "2s")
	t.Setenv("FANOUT_WORKERS", "3")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RECOMMEND_CACHE_ENABLED", "true")
	t.Setenv("STORAGE_SEED_FILE", "/tmp/seed.json")
	t.Setenv("BADGER_MEMTABLE_SIZE", "134217728")
	t.Setenv("AUTHZ_POLICY_FILE", "/etc/murmur/policy.csv")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Push.Timeout != 2*time.Second {
		t.Errorf("Push.Timeout = %v, want 2s", cfg.Push.Timeout)
	}
	if cfg.Fanout.Workers != 3 {
		t.Errorf("Fanout.Workers = %d, want 3", cfg.Fanout.Workers)
	}
	if !cfg.Recommend.CacheEnabled {
		t.Error("Recommend.CacheEnabled = false, want true")
	}
	if cfg.Storage.SeedFile != "/tmp/seed.json" {
		t.Errorf("Storage.SeedFile = %q, want /tmp/seed.json", cfg.Storage.SeedFile)
	}
	if cfg.Storage.MemTableSize != 128<<20 {
		t.Errorf("Storage.MemTableSize = %d, want %d", cfg.Storage.MemTableSize, 128<<20)
	}
	if cfg.Security.AuthzPolicyFile != "/etc/murmur/policy.csv" {
		t.Errorf("Security.AuthzPolicyFile = %q, want /etc/murmur/policy.csv", cfg.Security.AuthzPolicyFile)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

// TestLoad_FileThenEnv verifies the file layer and that env wins over it.
func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 7000
storage:
  backend: memory
push:
  transport: webhook
  webhook_url: https://push.example/send
security:
  auth_mode: none
recommend:
  default_page_size: 5
  max_page_size: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want env override 7001", cfg.Server.Port)
	}
	if cfg.Push.Transport != "webhook" || cfg.Push.WebhookURL != "https://push.example/send" {
		t.Errorf("Push = %+v", cfg.Push)
	}
	if cfg.Recommend.DefaultPageSize != 5 || cfg.Recommend.MaxPageSize != 20 {
		t.Errorf("Recommend = %+v", cfg.Recommend)
	}
	if cfg.Security.AuthMode != "none" {
		t.Errorf("AuthMode = %q", cfg.Security.AuthMode)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("Load() error = %v, want JWT_SECRET validation error", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"HTTP_PORT":       "server.port",
		"badger_path":     "storage.path",
		"PUSH_RATE_LIMIT": "push.rate_limit",
		"PATH":            "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
