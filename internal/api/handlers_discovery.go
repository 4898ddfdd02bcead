// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/murmur/internal/auth"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/recommend"
)

// GetRecommendations serves one page from the tiered chain. Authenticated
// callers are personalized by their interested categories; anonymous
// callers start at the trending tier.
//
// GET /api/v1/recommendations?limit=N
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	pageSize, err := getIntParam(r, "limit", h.recommender.DefaultPageSize())
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	interests, err := h.interestsOf(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	resp, err := h.recommender.Recommend(r.Context(), recommend.Request{
		Interests: interests,
		PageSize:  pageSize,
	})
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	md := metadataFor(r, start)
	md.Cached = resp.CacheHit
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: &models.RecommendationsResponse{
			Tier:  resp.Tier,
			Posts: resp.Posts,
		},
		Metadata: md,
	})
}

// interestsOf returns the user's interested categories. An unknown or
// anonymous user has none.
func (h *Handler) interestsOf(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := h.store.GetUser(ctx, userID)
	if models.IsKind(err, models.KindNotFound) {
		logging.Ctx(ctx).Debug().Msg("Recommendation caller has no profile")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.InterestedCategories.Sorted(), nil
}

// ListNotifications returns the caller's newest notifications.
//
// GET /api/v1/notifications?limit=N
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", defaultListLimit)
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	notifications, err := h.store.ListNotifications(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}

	respondSuccess(w, r, http.StatusOK, notifications, start)
}
