// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package engagement implements likes and favorites on top of the store's
// atomic set primitives.
//
// Likes toggle: a second like from the same user removes the first. Only the
// transition into the liked state notifies the author. Favorites are
// add-or-reject: adding a post that is already a favorite is a Conflict, and
// removal is a separate, idempotent operation.
package engagement

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/store"
)

// Store is the subset of the engagement store the engine uses.
type Store interface {
	store.UserStore
	store.PostReader
	store.SetStore
}

// LikeFanout is notified when a like is added.
type LikeFanout interface {
	FanOutLike(ctx context.Context, post *models.Post, author, liker *models.User) error
}

// LikeResult is the outcome of ToggleLike.
type LikeResult struct {
	PostID    string
	IsLiked   bool
	LikeCount int
}

// Engine runs engagement operations.
type Engine struct {
	store  Store
	fanout LikeFanout
	logger zerolog.Logger
}

// NewEngine creates an Engine. fanout may be nil, in which case likes are
// recorded without notifications.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(s Store, fanout LikeFanout, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  s,
		fanout: fanout,
		logger: logger.With().Str("component", "engagement").Logger(),
	}
}

// ToggleLike flips userID's like on postID and returns the resulting state.
// Adding a like notifies the author unless userID is the author. Notification
// failures are logged; the like itself stays committed.
func (e *Engine) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	const op = "engagement.ToggleLike"
	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}

	isLiked, count, err := e.store.Toggle(ctx, models.SetRef{OwnerID: postID, Set: models.SetPostLikes}, userID)
	if err != nil {
		return nil, err
	}
	result := &LikeResult{PostID: postID, IsLiked: isLiked, LikeCount: count}

	if isLiked && e.fanout != nil {
		e.notifyLike(ctx, postID, userID)
	}
	return result, nil
}

func (e *Engine) notifyLike(ctx context.Context, postID, likerID string) {
	log := e.logger.With().Str("request_id", logging.RequestIDFromContext(ctx)).Logger()

	post, err := e.store.GetPost(ctx, postID)
	if err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("Like committed but post could not be reloaded for notification")
		return
	}
	if post.AuthorID == likerID {
		return
	}
	author, err := e.store.GetUser(ctx, post.AuthorID)
	if err != nil {
		log.Warn().Err(err).Str("author_id", post.AuthorID).Msg("Like committed but author could not be loaded")
		return
	}
	liker, err := e.store.GetUser(ctx, likerID)
	if err != nil {
		// Unknown profile; the message falls back to a generic name.
		liker = &models.User{ID: likerID}
	}

	if err := e.fanout.FanOutLike(ctx, post, author, liker); err != nil {
		log.Error().Err(err).Str("post_id", postID).Msg("Like notification failed")
	}
}

// ToggleFavorite adds postID to userID's favorites and returns the updated
// list. It fails with NotFound when the post does not exist and Conflict when
// it is already a favorite.
func (e *Engine) ToggleFavorite(ctx context.Context, postID, userID string) ([]string, error) {
	const op = "engagement.ToggleFavorite"
	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}
	if _, err := e.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	favorites, err := e.store.AddUnique(ctx, favoritesRef(userID), postID)
	if models.IsKind(err, models.KindConflict) {
		return nil, &models.Error{
			Kind:    models.KindConflict,
			Op:      op,
			Entity:  "post",
			ID:      postID,
			Message: "Post already in favorites",
			Err:     err,
		}
	}
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

// RemoveFavorite removes postID from userID's favorites. Removing a post that
// is not a favorite succeeds; removing a post that does not exist is NotFound.
func (e *Engine) RemoveFavorite(ctx context.Context, postID, userID string) ([]string, error) {
	const op = "engagement.RemoveFavorite"
	if err := requireIDs(op, postID, userID); err != nil {
		return nil, err
	}
	if _, err := e.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return e.store.Remove(ctx, favoritesRef(userID), postID)
}

// ListFavorites resolves userID's favorites to posts. Favorites whose post
// has since been deleted are skipped.
func (e *Engine) ListFavorites(ctx context.Context, userID string) ([]*models.Post, error) {
	const op = "engagement.ListFavorites"
	if userID == "" {
		return nil, models.Invalid(op, "User ID is required")
	}
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.store.GetPosts(ctx, u.Favorites.Sorted())
}

func favoritesRef(userID string) models.SetRef {
	return models.SetRef{OwnerID: userID, Set: models.SetUserFavorites}
}

func requireIDs(op, postID, userID string) error {
	if postID == "" {
		return models.Invalid(op, "Post ID is required")
	}
	if userID == "" {
		return models.Invalid(op, "User ID is required")
	}
	return nil
}
