// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package models defines the data structures shared across Murmur.

Entities:

  - User: engagement view of an account (followers, favorites, interests)
  - Post: published content with its like set and view counter
  - Category: existence-checked reference for posts
  - Notification: append-only in-app notification record

Sets (likes, favorites, followers, following) are IDSet values, never
slices, so a member can only appear once. SetName and SetRef address a
single set for atomic mutation by the store.

Errors:

Every failure that crosses a package boundary is an *Error tagged with an
ErrorKind (NotFound, Conflict, Validation, Internal, Unavailable, Timeout,
Forbidden).
Use IsKind or errors.Is against the sentinels to branch on the kind:

	if errors.Is(err, models.ErrNotFound) {
	    // 404
	}

API:

APIResponse, Metadata, and APIError form the JSON envelope written by the
HTTP layer.
*/
package models
