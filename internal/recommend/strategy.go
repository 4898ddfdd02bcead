// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package recommend

import (
	"context"

	"github.com/tomtom215/murmur/internal/models"
)

// Tier names, in fallback order.
const (
	TierPersonalized = "personalized"
	TierTrending     = "trending"
	TierRecent       = "recent"
)

// PostSource is the read-only query the strategies run against.
type PostSource interface {
	QueryPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error)
}

// Strategy produces candidate posts for one tier. An empty result with a nil
// error hands the request to the next strategy.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, src PostSource, req Request) ([]*models.Post, error)
}

// DefaultStrategies returns the personalized, trending, recent chain.
func DefaultStrategies() []Strategy {
	return []Strategy{Personalized{}, Trending{}, Recent{}}
}

// Personalized returns the newest posts in the requester's interests. It
// yields nothing when the requester has no interests.
type Personalized struct{}

// Name implements Strategy.
func (Personalized) Name() string { return TierPersonalized }

// Recommend implements Strategy.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (Personalized) Recommend(ctx context.Context, src PostSource, req Request) ([]*models.Post, error) {
	interests := models.NewIDSet(req.Interests...)
	if interests.Len() == 0 {
		return nil, nil
	}
	return src.QueryPosts(ctx, models.PostQuery{
		Categories: interests,
		Order:      models.OrderNewest,
		Limit:      req.PageSize,
	})
}

// Trending returns the most viewed posts with at least one view.
type Trending struct{}

// Name implements Strategy.
func (Trending) Name() string { return TierTrending }

// Recommend implements Strategy.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (Trending) Recommend(ctx context.Context, src PostSource, req Request) ([]*models.Post, error) {
	return src.QueryPosts(ctx, models.PostQuery{
		MinViews: 1,
		Order:    models.OrderMostViewed,
		Limit:    req.PageSize,
	})
}

// Recent returns the newest posts regardless of category or views.
type Recent struct{}

// Name implements Strategy.
func (Recent) Name() string { return TierRecent }

// Recommend implements Strategy.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (Recent) Recommend(ctx context.Context, src PostSource, req Request) ([]*models.Post, error) {
	return src.QueryPosts(ctx, models.PostQuery{
		Order: models.OrderNewest,
		Limit: req.PageSize,
	})
}
