// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package publish

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/authz"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/store"
	"github.com/tomtom215/murmur/internal/validation"
)

// EditStore is the subset of the engagement store used for editing posts.
type EditStore interface {
	store.UserStore
	store.CategoryStore
	store.PostReader
	store.PostWriter
}

// Authorizer decides whether an actor may act on a post.
type Authorizer interface {
	Authorize(actor authz.Actor, object, objectID, action, ownerID string) error
}

// Editor updates and deletes published posts on behalf of their author or an
// admin.
type Editor struct {
	store  EditStore
	authz  Authorizer
	logger zerolog.Logger
}

// NewEditor creates an Editor.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEditor(s EditStore, a Authorizer, logger zerolog.Logger) *Editor {
	return &Editor{
		store:  s,
		authz:  a,
		logger: logger.With().Str("component", "publish").Logger(),
	}
}

// UpdatePost applies patch to the post. Likes and views are untouched.
//
// Errors: Validation for an empty or malformed patch, NotFound for an
// unknown post or category, Forbidden when the caller is neither the author
// nor an admin.
func (e *Editor) UpdatePost(ctx context.Context, callerID, postID string, patch *models.PostPatch) (*models.Post, error) {
	const op = "publish.UpdatePost"
	if postID == "" {
		return nil, models.Invalid(op, "post id is required")
	}
	if patch == nil || patch.Empty() {
		return nil, models.Invalid(op, "at least one field must be updated")
	}
	if verr := validation.ValidateStruct(patch); verr != nil {
		return nil, verr.ToModelError(op)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	post, err := e.authorize(ctx, callerID, postID, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if patch.CategoryID != nil && *patch.CategoryID != post.CategoryID {
		if _, err := e.store.GetCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	updated, err := e.store.UpdatePost(ctx, postID, patch)
	if err != nil {
		return nil, err
	}
	metrics.PostEdits.WithLabelValues(authz.ActionUpdate).Inc()
	logging.Ctx(ctx).Info().
		Str("post_id", postID).
		Str("editor_id", callerID).
		Msg("Post updated")
	return updated, nil
}

// DeletePost removes the post and its entry in the author's posts. Stale
// references in other users' favorites are skipped when favorites are listed.
func (e *Editor) DeletePost(ctx context.Context, callerID, postID string) error {
	const op = "publish.DeletePost"
	if postID == "" {
		return models.Invalid(op, "post id is required")
	}
	if _, err := e.authorize(ctx, callerID, postID, authz.ActionDelete); err != nil {
		return err
	}
	if err := e.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	metrics.PostEdits.WithLabelValues(authz.ActionDelete).Inc()
	logging.Ctx(ctx).Info().
		Str("post_id", postID).
		Str("editor_id", callerID).
		Msg("Post deleted")
	return nil
}

// authorize loads the post and checks the caller against its author. A
// caller without a stored profile has no role.
func (e *Editor) authorize(ctx context.Context, callerID, postID, action string) (*models.Post, error) {
	post, err := e.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	actor := authz.Actor{UserID: callerID}
	caller, err := e.store.GetUser(ctx, callerID)
	switch {
	case err == nil:
		actor.Role = caller.Role
	case !models.IsKind(err, models.KindNotFound):
		return nil, err
	}

	if err := e.authz.Authorize(actor, authz.ObjectPost, postID, action, post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}
