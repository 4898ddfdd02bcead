// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/models"
)

// LogTransport writes pushes to the log instead of a provider. Used in
// development and when no gateway is configured.
type LogTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a LogTransport.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With().Str("component", "push-log").Logger()}
}

// Name implements Transport.
func (t *LogTransport) Name() string { return TransportLog }

// Deliver implements Transport. The device token is never logged.
func (t *LogTransport) Deliver(ctx context.Context, msg models.PushMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info().
		Str("title", msg.Title).
		Str("body", msg.Body).
		Interface("data", msg.Data).
		Msg("Push message")
	return nil
}
