// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package main is the entry point for the Murmur server.
//
// Murmur is the engagement and discovery backend for a social content
// platform: likes, favorites, follower notifications with best-effort push,
// and tiered post recommendations.
//
// # Startup Order
//
//  1. Configuration: defaults, optional config.yaml, environment (Koanf v2)
//  2. Logging: zerolog global logger
//  3. Store: memory or Badger, plus the optional seed file
//  4. Push: notifier (log or webhook transport) behind a circuit breaker
//  5. Core: fan-out dispatcher, engagement engine, recommendation engine,
//     publishing service
//  6. HTTP: chi router with authentication, CORS and rate limiting
//  7. Supervisor tree: HTTP server and, for Badger, value-log GC
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server stops
// accepting requests and drains in-flight ones, then queued pushes are
// drained and the store is closed.
//
// # Example Usage
//
// Local development with an in-memory store and header identity:
//
//	export STORAGE_BACKEND=memory
//	export STORAGE_SEED_FILE=./seed.json
//	export AUTH_MODE=none
//	./murmur
//
// Production:
//
//	export STORAGE_BACKEND=badger
//	export BADGER_PATH=/data/murmur
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export PUSH_TRANSPORT=webhook
//	export PUSH_WEBHOOK_URL=https://push.example.com/send
//	export PUSH_SERVER_KEY=...
//	./murmur
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("backend", cfg.Storage.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("push_transport", cfg.Push.Transport).
		Msg("Starting Murmur")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Murmur stopped with error")
		stop()
		os.Exit(1)
	}

	logging.Info().Msg("Murmur stopped gracefully")
}
