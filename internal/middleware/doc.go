// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package middleware provides HTTP middleware shared by the API router.

Components:

  - RequestID: X-Request-ID propagation into the response and logging context
  - PrometheusMetrics: request counters and latency keyed by chi route pattern
  - RequestTimeout: per-request deadline for store and engine calls
  - SecurityHeaders: baseline response hardening headers

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.RequestTimeout(10 * time.Second))
*/
package middleware
