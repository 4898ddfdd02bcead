// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package api is the HTTP transport over the engagement and discovery core.
//
// Handlers decode the request, take the caller identity from the auth
// middleware, call one core operation and render its result or its
// classified error in the APIResponse envelope. They hold no business
// rules of their own.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and collaborator interfaces (this file)
//   - handlers_posts.go: publish, fetch, list, edit, delete, posts by category
//   - handlers_engagement.go: likes and favorites
//   - handlers_discovery.go: recommendations and notifications
//   - handlers_health.go: liveness and status
package api

import (
	"context"
	"time"

	"github.com/tomtom215/murmur/internal/engagement"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/recommend"
)

// Default and maximum page sizes for list endpoints without their own
// configuration.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Store is the read side of the engagement store used directly by handlers.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	QueryPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error)
	RecordView(ctx context.Context, postID string) (int64, error)
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	Backend() string
}

// Publisher publishes posts and notifies the author's followers.
type Publisher interface {
	PublishToFollowers(ctx context.Context, draft *models.PostDraft) (*models.Post, error)
}

// Editor updates and deletes posts on behalf of their author or an admin.
type Editor interface {
	UpdatePost(ctx context.Context, callerID, postID string, patch *models.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, callerID, postID string) error
}

// Engagement runs like and favorite operations.
type Engagement interface {
	ToggleLike(ctx context.Context, postID, userID string) (*engagement.LikeResult, error)
	ToggleFavorite(ctx context.Context, postID, userID string) ([]string, error)
	RemoveFavorite(ctx context.Context, postID, userID string) ([]string, error)
	ListFavorites(ctx context.Context, userID string) ([]*models.Post, error)
}

// Recommender serves the tiered recommendation chain.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	DefaultPageSize() int
}

// Handler serves the Murmur HTTP API.
type Handler struct {
	store       Store
	publisher   Publisher
	editor      Editor
	engagement  Engagement
	recommender Recommender
	startTime   time.Time
}

// NewHandler creates a Handler. Every collaborator is required.
//
// Example:
//
//	handler := api.NewHandler(st, publisher, editor, engine, recommender)
//	router := api.NewRouter(handler, authMiddleware, &cfg.Security, cfg.Server.RequestTimeout)
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
func NewHandler(s Store, p Publisher, ed Editor, e Engagement, r Recommender) *Handler {
	return &Handler{
		store:       s,
		publisher:   p,
		editor:      ed,
		engagement:  e,
		recommender: r,
		startTime:   time.Now(),
	}
}
