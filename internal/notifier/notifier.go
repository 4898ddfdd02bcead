// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package notifier delivers push messages to device tokens.
//
// Notifier.Send never returns an error. Delivery is best effort: failures,
// timeouts, open circuits and rate limiting are logged and counted, then
// dropped, so a push problem can never fail the request that caused it.
//
// PushNotifier layers three protections over a Transport:
//   - a per-call timeout
//   - a circuit breaker (sony/gobreaker) that stops calling a failing provider
//   - a token-bucket rate limit (golang.org/x/time/rate)
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

// Push results, used as the metrics label.
const (
	ResultSent        = "sent"
	ResultFailed      = "failed"
	ResultSkipped     = "skipped"
	ResultRejected    = "rejected"
	ResultCircuitOpen = "circuit_open"
	ResultRateLimited = "rate_limited"
)

// ErrRejected marks a message the provider refused for good (unknown or
// expired token, malformed payload). Rejections do not count against the
// circuit breaker.
var ErrRejected = errors.New("push rejected by provider")

// Notifier is the push boundary used by the fan-out dispatcher.
type Notifier interface {
	Send(ctx context.Context, msg models.PushMessage)
}

// Transport performs one delivery attempt.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, msg models.PushMessage) error
}

// Options tunes a PushNotifier. Zero values fall back to the defaults below.
type Options struct {
	Timeout time.Duration

	// RateLimit is messages per second; 0 disables limiting.
	RateLimit float64
	RateBurst int

	BreakerFailures     uint32
	BreakerTimeout      time.Duration
	BreakerInterval     time.Duration
	BreakerHalfOpenReqs uint32
}

// OptionsFromConfig maps the push config section to Options.
func OptionsFromConfig(cfg *config.PushConfig) Options {
	return Options{
		Timeout:             cfg.Timeout,
		RateLimit:           cfg.RateLimit,
		RateBurst:           cfg.RateBurst,
		BreakerFailures:     cfg.BreakerFailures,
		BreakerTimeout:      cfg.BreakerTimeout,
		BreakerInterval:     cfg.BreakerInterval,
		BreakerHalfOpenReqs: cfg.BreakerHalfOpenReqs,
	}
}

// PushNotifier implements Notifier on top of a Transport.
type PushNotifier struct {
	transport Transport
	timeout   time.Duration
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[struct{}]
	logger    zerolog.Logger
}

// NewPushNotifier wraps t with timeout, breaker and rate limit.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPushNotifier(t Transport, o Options, logger zerolog.Logger) *PushNotifier {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	if o.BreakerHalfOpenReqs == 0 {
		o.BreakerHalfOpenReqs = 1
	}

	n := &PushNotifier{
		transport: t,
		timeout:   o.Timeout,
		logger:    logger.With().Str("component", "notifier").Str("transport", t.Name()).Logger(),
	}
	if o.RateLimit > 0 {
		burst := o.RateBurst
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(o.RateLimit), burst)
	}

	cbName := "push-" + t.Name()
	metrics.PushCircuitState.WithLabelValues(cbName).Set(0)
	threshold := o.BreakerFailures
	n.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: o.BreakerHalfOpenReqs,
		Interval:    o.BreakerInterval,
		Timeout:     o.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			n.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Push circuit breaker state change")
			metrics.PushCircuitState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return n
}

// Send implements Notifier.
func (n *PushNotifier) Send(ctx context.Context, msg models.PushMessage) {
	name := n.transport.Name()
	if msg.DeviceToken == "" {
		metrics.RecordPush(name, ResultSkipped, 0)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			metrics.RecordPush(name, ResultRateLimited, 0)
			n.logger.Warn().Err(err).Str("title", msg.Title).Msg("Push dropped by rate limit")
			return
		}
	}

	start := time.Now()
	_, err := n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.transport.Deliver(ctx, msg)
	})
	result := classify(err)
	metrics.RecordPush(name, result, time.Since(start))

	switch result {
	case ResultSent:
		n.logger.Debug().Str("title", msg.Title).Msg("Push delivered")
	case ResultCircuitOpen:
		n.logger.Debug().Err(err).Msg("Push skipped, circuit open")
	default:
		n.logger.Warn().Err(err).Str("result", result).Str("title", msg.Title).Msg("Push delivery failed")
	}
}

// State reports the breaker state, for health output and tests.
func (n *PushNotifier) State() gobreaker.State {
	return n.cb.State()
}

func classify(err error) string {
	switch {
	case err == nil:
		return ResultSent
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ResultCircuitOpen
	case errors.Is(err, ErrRejected):
		return ResultRejected
	default:
		return ResultFailed
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// New builds the configured transport and wraps it in a PushNotifier.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg *config.PushConfig, logger zerolog.Logger) (*PushNotifier, error) {
	var t Transport
	switch cfg.Transport {
	case "", TransportLog:
		t = NewLogTransport(logger)
	case TransportWebhook:
		wt, err := NewWebhookTransport(cfg.WebhookURL, cfg.ServerKey)
		if err != nil {
			return nil, err
		}
		t = wt
	default:
		return nil, fmt.Errorf("unknown push transport %q", cfg.Transport)
	}
	return NewPushNotifier(t, OptionsFromConfig(cfg), logger), nil
}
