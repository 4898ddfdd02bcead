// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import "time"

// Post is a published piece of content. AuthorID is immutable after creation.
// Likes is owned by the post and only mutated through the toggle primitive.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Images     []string  `json:"images,omitempty"`
	Videos     []string  `json:"videos,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Likes      IDSet     `json:"likes"`
	Views      int64     `json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (p *Post) Clone() *Post {
	c := *p
	c.Likes = p.Likes.Clone()
	c.Images = append([]string(nil), p.Images...)
	c.Videos = append([]string(nil), p.Videos...)
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

// PostDraft is the input for publishing a post. The author comes from the
// authenticated caller, never from the request body.
type PostDraft struct {
	AuthorID   string   `json:"-" validate:"required"`
	CategoryID string   `json:"category_id" validate:"required,max=64"`
	Title      string   `json:"title" validate:"required,notblank,max=200"`
	Content    string   `json:"content" validate:"required,notblank,max=10000"`
	Images     []string `json:"images,omitempty" validate:"max=10,dive,url"`
	Videos     []string `json:"videos,omitempty" validate:"max=5,dive,url"`
	Tags       []string `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
}

// PostPatch is the input for editing a post. A nil field is left unchanged;
// an empty, non-nil slice clears it. Author, likes and views are not
// editable.
type PostPatch struct {
	CategoryID *string  `json:"category_id,omitempty" validate:"omitempty,max=64"`
	Title      *string  `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Content    *string  `json:"content,omitempty" validate:"omitempty,notblank,max=10000"`
	Images     []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	Videos     []string `json:"videos,omitempty" validate:"omitempty,max=5,dive,url"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// Empty reports whether the patch changes nothing.
func (pp *PostPatch) Empty() bool {
	return pp.CategoryID == nil && pp.Title == nil && pp.Content == nil &&
		pp.Images == nil && pp.Videos == nil && pp.Tags == nil
}

// Apply copies the set fields onto p and stamps UpdatedAt.
func (pp *PostPatch) Apply(p *Post, now time.Time) {
	if pp.CategoryID != nil {
		p.CategoryID = *pp.CategoryID
	}
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Images != nil {
		p.Images = append([]string(nil), pp.Images...)
	}
	if pp.Videos != nil {
		p.Videos = append([]string(nil), pp.Videos...)
	}
	if pp.Tags != nil {
		p.Tags = append([]string(nil), pp.Tags...)
	}
	p.UpdatedAt = now
}

// PostOrder selects the ordering for post queries. Ties are always broken by
// ascending post ID so results are deterministic.
type PostOrder int

const (
	// OrderNewest sorts by CreatedAt descending.
	OrderNewest PostOrder = iota
	// OrderMostViewed sorts by Views descending.
	OrderMostViewed
)

// PostQuery filters and orders a post scan.
type PostQuery struct {
	// Categories restricts to these categories when non-empty.
	Categories IDSet
	// MinViews keeps posts with Views >= MinViews.
	MinViews int64
	Order    PostOrder
	Limit    int
}

// Matches reports whether p passes the query filters.
func (q PostQuery) Matches(p *Post) bool {
	if len(q.Categories) > 0 && !q.Categories.Has(p.CategoryID) {
		return false
	}
	return p.Views >= q.MinViews
}

// Less reports whether a sorts before b under the query order.
func (q PostQuery) Less(a, b *Post) bool {
	switch q.Order {
	case OrderMostViewed:
		if a.Views != b.Views {
			return a.Views > b.Views
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}
