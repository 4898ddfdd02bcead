// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/api"
	"github.com/tomtom215/murmur/internal/auth"
	"github.com/tomtom215/murmur/internal/authz"
	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/engagement"
	"github.com/tomtom215/murmur/internal/fanout"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/notifier"
	"github.com/tomtom215/murmur/internal/publish"
	"github.com/tomtom215/murmur/internal/recommend"
	"github.com/tomtom215/murmur/internal/store"
	"github.com/tomtom215/murmur/internal/supervisor"
	"github.com/tomtom215/murmur/internal/supervisor/services"
)

// app holds the wired components for one process lifetime.
type app struct {
	store      store.Store
	dispatcher *fanout.Dispatcher
	handler    http.Handler
}

// openStore opens the configured backend and applies the seed file.
func openStore(ctx context.Context, cfg *config.StorageConfig, logger zerolog.Logger) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case store.BackendMemory:
		s = store.NewMemoryStore()
	case store.BackendBadger:
		s, err = store.OpenBadger(store.BadgerOptions{
			Path:            cfg.Path,
			SyncWrites:      cfg.SyncWrites,
			ConflictRetries: cfg.ConflictRetries,
			MemTableSize:    cfg.MemTableSize,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.SeedFile != "" {
		if err := store.LoadSeed(ctx, s, cfg.SeedFile); err != nil {
			return nil, errors.Join(fmt.Errorf("load seed file: %w", err), s.Close())
		}
		logger.Info().Str("file", cfg.SeedFile).Msg("Seed data loaded")
	}
	return s, nil
}

// newApp wires the core over s.
func newApp(cfg *config.Config, s store.Store) (*app, error) {
	logger := logging.Logger()

	push, err := notifier.New(&cfg.Push, logger)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}

	dispatcher := fanout.NewDispatcher(s, push, fanout.Config{
		Workers:   cfg.Fanout.Workers,
		QueueSize: cfg.Fanout.QueueSize,
	}, logger)

	recommender, err := recommend.NewEngine(s, recommend.ConfigFrom(&cfg.Recommend), logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create recommendation engine: %w", err), dispatcher.Shutdown(context.Background()))
	}

	authenticator, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create authenticator: %w", err), dispatcher.Shutdown(context.Background()))
	}
	enforcer, err := authz.NewEnforcer(cfg.Security.AuthzPolicyFile, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create authorization enforcer: %w", err), dispatcher.Shutdown(context.Background()))
	}
	if authenticator.Name() == auth.ModeNone {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none): callers are identified by the X-User-ID header")
	}

	handler := api.NewHandler(
		s,
		publish.NewService(s, dispatcher, logger),
		publish.NewEditor(s, enforcer, logger),
		engagement.NewEngine(s, dispatcher, logger),
		recommender,
	)
	router := api.NewRouter(handler, authenticator, &cfg.Security, cfg.Server.RequestTimeout)

	return &app{
		store:      s,
		dispatcher: dispatcher,
		handler:    router.SetupChi(),
	}, nil
}

// run serves until ctx is canceled, then drains pushes and closes the store.
func run(ctx context.Context, cfg *config.Config) (err error) {
	logger := logging.Logger()

	s, err := openStore(ctx, &cfg.Storage, logger)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, s)
	if err != nil {
		return errors.Join(err, s.Close())
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if derr := a.dispatcher.Shutdown(drainCtx); derr != nil {
			logging.Warn().Err(derr).Msg("Push queue not fully drained")
		}
		if cerr := a.store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if bs, ok := s.(*store.BadgerStore); ok && cfg.Storage.GCInterval > 0 {
		tree.AddDataService(services.NewStoreGCService(bs, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio, logger))
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	serveErr := tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	return serveErr
}
