// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import "time"

// User is the engagement view of an account. Credentials and profile fields
// live elsewhere; only the sets this backend reads or mutates are stored here.
//
// Following and Followers are stored independently. Nothing here keeps them
// symmetric.
type User struct {
	ID                   string    `json:"id" validate:"required"`
	Name                 string    `json:"name"`
	DeviceToken          string    `json:"device_token,omitempty"`
	Role                 string    `json:"role,omitempty"`
	Posts                IDSet     `json:"posts"`
	Following            IDSet     `json:"following"`
	Followers            IDSet     `json:"followers"`
	LikedPosts           IDSet     `json:"liked_posts"`
	Favorites            IDSet     `json:"favorites"`
	InterestedCategories IDSet     `json:"interested_categories"`
	CreatedAt            time.Time `json:"created_at"`
}

// Normalize replaces nil sets with empty ones so callers can mutate them.
func (u *User) Normalize() {
	if u.Posts == nil {
		u.Posts = IDSet{}
	}
	if u.Following == nil {
		u.Following = IDSet{}
	}
	if u.Followers == nil {
		u.Followers = IDSet{}
	}
	if u.LikedPosts == nil {
		u.LikedPosts = IDSet{}
	}
	if u.Favorites == nil {
		u.Favorites = IDSet{}
	}
	if u.InterestedCategories == nil {
		u.InterestedCategories = IDSet{}
	}
}

// DisplayName returns the name used in rendered notification messages.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "Someone"
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	c.Posts = u.Posts.Clone()
	c.Following = u.Following.Clone()
	c.Followers = u.Followers.Clone()
	c.LikedPosts = u.LikedPosts.Clone()
	c.Favorites = u.Favorites.Clone()
	c.InterestedCategories = u.InterestedCategories.Clone()
	return &c
}

// Category is a post category. Category CRUD is handled elsewhere; the
// backend only checks existence.
type Category struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}
