// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package metrics holds the Prometheus instruments for Murmur. All collectors
// register with the default registry through promauto and are served at
// /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "murmur_store_operation_duration_seconds",
			Help:    "Duration of engagement store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_store_errors_total",
			Help: "Store operations that failed, by error kind",
		},
		[]string{"backend", "operation", "kind"},
	)

	StoreConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_store_conflict_retries_total",
			Help: "Transactions retried after an optimistic concurrency conflict",
		},
		[]string{"backend"},
	)

	// Engagement metrics
	SetMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_set_mutations_total",
			Help: "Membership mutations by set and result (added, removed, rejected)",
		},
		[]string{"set", "result"},
	)

	PostsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_posts_published_total",
			Help: "Posts successfully published",
		},
	)

	PostEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_post_edits_total",
			Help: "Post updates and deletions by action",
		},
		[]string{"action"},
	)

	// Authorization metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_authz_decisions_total",
			Help: "Authorization decisions by object, action and result (allowed, denied, error)",
		},
		[]string{"object", "action", "result"},
	)

	// Fan-out metrics
	NotificationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_notifications_written_total",
			Help: "Notification records persisted, by type",
		},
		[]string{"type"},
	)

	NotificationBatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_notification_batch_failures_total",
			Help: "Notification batch writes that failed, by type",
		},
		[]string{"type"},
	)

	FanoutBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "murmur_fanout_batch_size",
			Help:    "Recipients per fan-out batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 .. 16384
		},
	)

	PushQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "murmur_push_queue_depth",
			Help: "Push requests waiting for a dispatch worker",
		},
	)

	// Push metrics
	PushResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_push_results_total",
			Help: "Push delivery outcomes (sent, failed, skipped, rejected, circuit_open, rate_limited)",
		},
		[]string{"transport", "result"},
	)

	PushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "murmur_push_duration_seconds",
			Help:    "Push transport call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	PushCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "murmur_push_circuit_state",
			Help: "Push circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Recommendation metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_recommendations_served_total",
			Help: "Recommendation responses by the tier that produced them",
		},
		[]string{"tier"},
	)

	RecommendationsEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_recommendations_empty_total",
			Help: "Recommendation requests where every tier was empty",
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_recommend_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "murmur_recommend_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "murmur_recommend_duration_seconds",
			Help:    "Time to produce a recommendation response",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_api_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "murmur_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "murmur_api_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

// RecordStoreOp records one store call. kind is the error kind label when
// err is non-nil.
func RecordStoreOp(backend, operation string, duration time.Duration, kind string, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, operation, kind).Inc()
	}
}

// RecordSetMutation records a membership mutation result.
func RecordSetMutation(set, result string) {
	SetMutations.WithLabelValues(set, result).Inc()
}

// RecordNotificationBatch records a notification batch write.
func RecordNotificationBatch(notificationType string, size int, err error) {
	if err != nil {
		NotificationBatchFailures.WithLabelValues(notificationType).Inc()
		return
	}
	FanoutBatchSize.Observe(float64(size))
	NotificationsWritten.WithLabelValues(notificationType).Add(float64(size))
}

// RecordPush records one push delivery outcome.
func RecordPush(transport, result string, duration time.Duration) {
	PushResults.WithLabelValues(transport, result).Inc()
	if duration > 0 {
		PushDuration.WithLabelValues(transport).Observe(duration.Seconds())
	}
}

// RecordRecommendation records which tier served a request, or an empty result
// when tier is "".
func RecordRecommendation(tier string, duration time.Duration) {
	RecommendDuration.Observe(duration.Seconds())
	if tier == "" {
		RecommendationsEmpty.Inc()
		return
	}
	RecommendationsServed.WithLabelValues(tier).Inc()
}

// RecordAuthzDecision records one authorization decision.
func RecordAuthzDecision(object, action, result string) {
	AuthzDecisions.WithLabelValues(object, action, result).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
