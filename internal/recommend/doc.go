// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package recommend builds a feed for a user from an ordered chain of
// strategies, falling back to the next one whenever a strategy finds nothing.
//
// # Tiers
//
//   - personalized: posts in the user's interested categories, newest first
//   - trending: posts with at least one view, most viewed first
//   - recent: every post, newest first
//
// Ties are broken by ascending post ID, so a fixed snapshot of the store
// always yields the same page. When every tier is empty the engine returns a
// NotFound error.
//
// # Usage
//
//	engine, err := recommend.NewEngine(store, recommend.DefaultConfig(), logger)
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    Interests: user.InterestedCategories.Sorted(),
//	    PageSize:  10,
//	})
//
// # Caching
//
// With Config.Cache.Enabled the engine keeps non-empty responses in an LRU
// keyed by the sorted interests and page size. Entries expire after
// Config.Cache.TTL, so new posts appear within that window.
package recommend
