// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import "fmt"

// SetName names a membership set on a post or user.
type SetName string

const (
	// SetPostLikes is Post.Likes (members are user IDs).
	SetPostLikes SetName = "post.likes"
	// SetUserFavorites is User.Favorites (members are post IDs).
	SetUserFavorites SetName = "user.favorites"
	// SetUserLikedPosts is User.LikedPosts (members are post IDs).
	SetUserLikedPosts SetName = "user.liked_posts"
	// SetUserFollowing is User.Following (members are user IDs).
	SetUserFollowing SetName = "user.following"
	// SetUserFollowers is User.Followers (members are user IDs).
	SetUserFollowers SetName = "user.followers"
	// SetUserPosts is User.Posts (members are post IDs).
	SetUserPosts SetName = "user.posts"
)

// OnPost reports whether the set is owned by a post rather than a user.
func (n SetName) OnPost() bool {
	return n == SetPostLikes
}

// Entity returns the owning entity name used in error messages.
func (n SetName) Entity() string {
	if n.OnPost() {
		return "post"
	}
	return "user"
}

// Valid reports whether n is a known set.
func (n SetName) Valid() bool {
	switch n {
	case SetPostLikes, SetUserFavorites, SetUserLikedPosts,
		SetUserFollowing, SetUserFollowers, SetUserPosts:
		return true
	}
	return false
}

// SetRef identifies one set: the owner and which of its sets.
type SetRef struct {
	OwnerID string
	Set     SetName
}

func (r SetRef) String() string {
	return fmt.Sprintf("%s[%s]", r.Set, r.OwnerID)
}

// PostSet returns the addressed set on p. The set is created if nil.
func PostSet(p *Post, name SetName) (*IDSet, bool) {
	if name != SetPostLikes {
		return nil, false
	}
	if p.Likes == nil {
		p.Likes = IDSet{}
	}
	return &p.Likes, true
}

// UserSet returns the addressed set on u. The set is created if nil.
func UserSet(u *User, name SetName) (*IDSet, bool) {
	u.Normalize()
	switch name {
	case SetUserFavorites:
		return &u.Favorites, true
	case SetUserLikedPosts:
		return &u.LikedPosts, true
	case SetUserFollowing:
		return &u.Following, true
	case SetUserFollowers:
		return &u.Followers, true
	case SetUserPosts:
		return &u.Posts, true
	}
	return nil, false
}
