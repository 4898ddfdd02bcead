// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// ValueLogCollector is satisfied by *store.BadgerStore.
type ValueLogCollector interface {
	RunGC(discardRatio float64) error
}

// StoreGCService runs Badger value-log GC on a fixed interval.
type StoreGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewStoreGCService creates the service. interval must be positive; callers
// skip the service entirely when GC is disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewStoreGCService(s ValueLogCollector, interval time.Duration, discardRatio float64, logger zerolog.Logger) *StoreGCService {
	return &StoreGCService{
		store:        s,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve implements suture.Service. A GC failure is returned so the
// supervisor restarts the loop with backoff.
func (s *StoreGCService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("store gc interval must be positive, got %v: %w", s.interval, suture.ErrDoNotRestart)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.store.RunGC(s.discardRatio); err != nil {
				return fmt.Errorf("value log gc: %w", err)
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Value log GC complete")
		}
	}
}

// String implements fmt.Stringer.
func (s *StoreGCService) String() string {
	return "store-gc"
}
