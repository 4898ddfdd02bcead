// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package publish creates posts and fans them out to the author's followers.
//
// A post counts as published only once its follower notifications are
// durable. If the notification batch cannot be written the post is deleted
// again and the caller gets an Internal error.
package publish

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/store"
	"github.com/tomtom215/murmur/internal/validation"
)

// compensationTimeout bounds the delete that undoes a half-published post.
const compensationTimeout = 5 * time.Second

// Store is the subset of the engagement store used for publishing.
type Store interface {
	store.UserStore
	store.CategoryStore
	store.PostWriter
}

// Fanout writes new-post notifications and pushes.
type Fanout interface {
	FanOutNewPost(ctx context.Context, post *models.Post, author *models.User, followers []*models.User) error
}

// Service publishes posts.
type Service struct {
	store  Store
	fanout Fanout
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a Service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(s Store, f Fanout, logger zerolog.Logger) *Service {
	return &Service{
		store:  s,
		fanout: f,
		logger: logger.With().Str("component", "publish").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Publish validates draft, stores the post, records it in the author's posts
// and notifies followers.
//
// Errors: Validation for a malformed draft, NotFound for an unknown category
// or author, Internal when the notification batch fails.
func (s *Service) Publish(ctx context.Context, draft *models.PostDraft, followers []*models.User) (*models.Post, error) {
	const op = "publish.Publish"
	if draft == nil {
		return nil, models.Invalid(op, "post is required")
	}
	if verr := validation.ValidateStruct(draft); verr != nil {
		return nil, verr.ToModelError(op)
	}

	if _, err := s.store.GetCategory(ctx, draft.CategoryID); err != nil {
		return nil, err
	}
	author, err := s.store.GetUser(ctx, draft.AuthorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:         s.newID(),
		AuthorID:   author.ID,
		CategoryID: draft.CategoryID,
		Title:      strings.TrimSpace(draft.Title),
		Content:    draft.Content,
		Images:     draft.Images,
		Videos:     draft.Videos,
		Tags:       draft.Tags,
		Likes:      models.IDSet{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if err := s.fanout.FanOutNewPost(ctx, post, author, followers); err != nil {
		s.compensate(ctx, post.ID)
		return nil, &models.Error{
			Kind:    models.KindInternal,
			Op:      op,
			Entity:  "post",
			ID:      post.ID,
			Message: "post could not be published: follower notifications were not recorded",
			Err:     err,
		}
	}

	metrics.PostsPublished.Inc()
	logging.Ctx(ctx).Info().
		Str("post_id", post.ID).
		Str("author_id", author.ID).
		Str("category_id", post.CategoryID).
		Int("followers", len(followers)).
		Msg("Post published")
	return post, nil
}

// PublishToFollowers resolves the author's followers from the store and
// publishes draft to them.
func (s *Service) PublishToFollowers(ctx context.Context, draft *models.PostDraft) (*models.Post, error) {
	const op = "publish.PublishToFollowers"
	if draft == nil || draft.AuthorID == "" {
		return nil, models.Invalid(op, "author is required")
	}
	author, err := s.store.GetUser(ctx, draft.AuthorID)
	if err != nil {
		return nil, err
	}
	followers, err := s.store.GetUsers(ctx, author.Followers.Sorted())
	if err != nil {
		return nil, err
	}
	return s.Publish(ctx, draft, followers)
}

// compensate removes a post whose notifications failed. It runs even if the
// request context is already done.
func (s *Service) compensate(ctx context.Context, postID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.store.DeletePost(ctx, postID); err != nil {
		s.logger.Error().Err(err).Str("post_id", postID).Msg("Failed to remove post after notification batch failure")
		return
	}
	s.logger.Warn().Str("post_id", postID).Msg("Post removed after notification batch failure")
}
