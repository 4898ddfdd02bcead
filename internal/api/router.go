// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/murmur/internal/auth"
	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/middleware"
)

// Router wires handlers, authentication and middleware into a chi mux.
type Router struct {
	handler        *Handler
	auth           *auth.Middleware
	chiMiddleware  *ChiMiddleware
	requestTimeout time.Duration
}

// NewRouter creates a router. Authentication failures are rendered in the
// API envelope.
func NewRouter(handler *Handler, authenticator auth.Authenticator, sec *config.SecurityConfig, requestTimeout time.Duration) *Router {
	return &Router{
		handler:        handler,
		auth:           auth.NewMiddleware(authenticator, unauthorized),
		chiMiddleware:  NewChiMiddleware(ChiMiddlewareConfigFrom(sec)),
		requestTimeout: requestTimeout,
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.RequestTimeout(router.requestTimeout))

		// Public reads.
		r.Group(func(r chi.Router) {
			r.Get("/posts", router.handler.ListPosts)
			r.Get("/posts/{postID}", router.handler.GetPost)
			r.Get("/categories/{categoryID}/posts", router.handler.ListCategoryPosts)
		})

		// Personalized when a caller is known.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.OptionalAuth)
			r.Get("/recommendations", router.handler.GetRecommendations)
		})

		// Caller-scoped reads.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireAuth)
			r.Get("/favorites", router.handler.ListFavorites)
			r.Get("/notifications", router.handler.ListNotifications)
		})

		// Mutations.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireAuth)
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Post("/posts", router.handler.CreatePost)
			r.Put("/posts/{postID}", router.handler.UpdatePost)
			r.Delete("/posts/{postID}", router.handler.DeletePost)
			r.Post("/likes", router.handler.ToggleLike)
			r.Post("/favorites", router.handler.AddFavorite)
			r.Delete("/favorites/{postID}", router.handler.RemoveFavorite)
		})
	})

	return r
}
