// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/auth"
	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/store"
)

const seedJSON = `{
  "categories": [{"id": "tech", "name": "Tech"}],
  "users": [
    {"id": "alice", "name": "Alice", "device_token": "tok-a", "interests": ["tech"]},
    {"id": "bob", "name": "Bob", "follows": ["alice"]}
  ]
}`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(storage config.StorageConfig) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: storage,
		Push:    config.PushConfig{Transport: "log", Timeout: time.Second},
		Fanout:  config.FanoutConfig{Workers: 2, QueueSize: 16},
		Recommend: config.RecommendConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
			CacheSize:       16,
			CacheTTL:        time.Second,
		},
		Security: config.SecurityConfig{AuthMode: auth.ModeNone, RateLimitDisabled: true},
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func(t *testing.T) config.StorageConfig
		backend string
		wantErr bool
	}{
		{
			name: "memory with seed",
			cfg: func(t *testing.T) config.StorageConfig {
				return config.StorageConfig{Backend: store.BackendMemory, SeedFile: writeSeed(t)}
			},
			backend: store.BackendMemory,
		},
		{
			name: "badger with seed",
			cfg: func(t *testing.T) config.StorageConfig {
				return config.StorageConfig{
					Backend:         store.BackendBadger,
					Path:            filepath.Join(t.TempDir(), "badger"),
					ConflictRetries: 16,
					SeedFile:        writeSeed(t),
				}
			},
			backend: store.BackendBadger,
		},
		{
			name: "unknown backend",
			cfg: func(*testing.T) config.StorageConfig {
				return config.StorageConfig{Backend: "postgres"}
			},
			wantErr: true,
		},
		{
			name: "missing seed file",
			cfg: func(t *testing.T) config.StorageConfig {
				return config.StorageConfig{Backend: store.BackendMemory, SeedFile: filepath.Join(t.TempDir(), "absent.json")}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			cfg := tt.cfg(t)
			s, err := openStore(ctx, &cfg, zerolog.Nop())
			if tt.wantErr {
				if err == nil {
					_ = s.Close()
					t.Fatal("openStore() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			defer func() { _ = s.Close() }()

			if s.Backend() != tt.backend {
				t.Errorf("Backend() = %q, want %q", s.Backend(), tt.backend)
			}
			alice, err := s.GetUser(ctx, "alice")
			if err != nil {
				t.Fatalf("seeded user missing: %v", err)
			}
			if !alice.Followers.Has("bob") {
				t.Errorf("alice followers = %v, want bob", alice.Followers.Sorted())
			}
		})
	}
}

func TestNewApp_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := testConfig(config.StorageConfig{Backend: store.BackendMemory, SeedFile: writeSeed(t)})
	s, err := openStore(ctx, &cfg.Storage, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	a, err := newApp(cfg, s)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer func() {
		_ = a.dispatcher.Shutdown(ctx)
		_ = a.store.Close()
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts",
		bytes.NewReader([]byte(`{"category_id":"tech","title":"Hello","content":"World"}`)))
	req.Header.Set(auth.UserIDHeader, "alice")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	a.dispatcher.Wait()
	ns, err := s.ListNotifications(ctx, "bob", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 1 || ns[0].Type != models.NotificationNewPost {
		t.Errorf("bob notifications = %+v, want one new_post", ns)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	req.Header.Set(auth.UserIDHeader, "alice")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("recommendations status = %d, want 200", rec.Code)
	}
}

func TestNewApp_InvalidAuth(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.StorageConfig{Backend: store.BackendMemory})
	cfg.Security.AuthMode = auth.ModeJWT // no secret

	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()

	if _, err := newApp(cfg, s); err == nil {
		t.Error("newApp() error = nil, want missing JWT secret error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.StorageConfig{
		Backend:    store.BackendBadger,
		Path:       filepath.Join(t.TempDir(), "badger"),
		GCInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestNewApp_MissingPolicyFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.StorageConfig{Backend: store.BackendMemory})
	cfg.Security.AuthzPolicyFile = filepath.Join(t.TempDir(), "missing.csv")

	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()

	if _, err := newApp(cfg, s); err == nil {
		t.Error("newApp() error = nil, want missing policy file error")
	}
}
