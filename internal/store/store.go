// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package store is the engagement store: users, posts, categories and the
// append-only notification log.
//
// Membership sets are mutated only through Toggle, AddUnique and Remove. Each
// call is an atomic check-then-mutate on one (owner, set) pair, so concurrent
// toggles by different members on the same set never lose an update and the
// same member can never appear twice.
//
// Two backends implement Store:
//
//   - MemoryStore: process-local maps behind a RWMutex, for development and tests
//   - BadgerStore: BadgerDB with optimistic transactions; writers of one
//     document are serialized by striped in-process locks and any remaining
//     conflict is retried
package store

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// UserStore reads and writes users.
type UserStore interface {
	PutUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUsers returns the users that exist, in the order of ids. Missing ids
	// are skipped.
	GetUsers(ctx context.Context, ids []string) ([]*models.User, error)
}

// CategoryStore checks category existence.
type CategoryStore interface {
	PutCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

// PostReader reads posts.
type PostReader interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// GetPosts returns the posts that exist, in the order of ids.
	GetPosts(ctx context.Context, ids []string) ([]*models.Post, error)
	// QueryPosts scans posts matching q, sorted by q.Order with ties broken by
	// ascending ID, truncated to q.Limit when positive.
	QueryPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error)
}

// PostWriter creates, edits and removes posts.
type PostWriter interface {
	// CreatePost stores p and adds its ID to the author's posts set in one
	// atomic step. The author must exist.
	CreatePost(ctx context.Context, p *models.Post) error
	// DeletePost removes p and its entry in the author's posts set.
	DeletePost(ctx context.Context, id string) error
	// UpdatePost applies patch to the stored post in one atomic step and
	// returns the result. Likes and views written concurrently are kept.
	UpdatePost(ctx context.Context, id string, patch *models.PostPatch) (*models.Post, error)
	// RecordView increments the view counter and returns the new value.
	RecordView(ctx context.Context, postID string) (int64, error)
}

// SetStore provides the atomic membership primitives.
type SetStore interface {
	// Toggle removes member if present, otherwise inserts it. It returns the
	// resulting membership and set size.
	Toggle(ctx context.Context, ref models.SetRef, member string) (isMember bool, count int, err error)
	// AddUnique inserts member or fails with a Conflict error when it is
	// already present. It returns the resulting members, sorted.
	AddUnique(ctx context.Context, ref models.SetRef, member string) ([]string, error)
	// Remove deletes member if present. An absent member is not an error.
	Remove(ctx context.Context, ref models.SetRef, member string) ([]string, error)
}

// NotificationStore is the append-only notification log.
type NotificationStore interface {
	// InsertNotifications writes every record or none.
	InsertNotifications(ctx context.Context, ns []*models.Notification) error
	// ListNotifications returns the newest notifications for recipient.
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
}

// Store is the full engagement store.
type Store interface {
	UserStore
	CategoryStore
	PostReader
	PostWriter
	SetStore
	NotificationStore

	Backend() string
	Close() error
}

// setOp is one of the three membership primitives.
type setOp int

const (
	opToggle setOp = iota
	opAddUnique
	opRemove
)

func (o setOp) String() string {
	switch o {
	case opAddUnique:
		return "add_unique"
	case opRemove:
		return "remove"
	default:
		return "toggle"
	}
}

// applySetOp performs op on set. It reports whether the set changed and the
// resulting membership of member. Both backends call it while holding
// exclusive access to the owning document.
func applySetOp(set *models.IDSet, op setOp, ref models.SetRef, member string) (changed, isMember bool, err error) {
	switch op {
	case opToggle:
		if set.Has(member) {
			set.Remove(member)
			return true, false, nil
		}
		set.Add(member)
		return true, true, nil
	case opAddUnique:
		if set.Has(member) {
			return false, true, &models.Error{
				Kind:    models.KindConflict,
				Op:      "store.AddUnique",
				Entity:  ref.Set.Entity(),
				ID:      ref.OwnerID,
				Message: member + " already in " + string(ref.Set),
			}
		}
		set.Add(member)
		return true, true, nil
	default:
		return set.Remove(member), false, nil
	}
}

// mutationResult maps an op outcome to the metrics label.
func mutationResult(changed, isMember bool, err error) string {
	switch {
	case err != nil && models.IsKind(err, models.KindConflict):
		return "rejected"
	case err != nil:
		return "error"
	case !changed:
		return "unchanged"
	case isMember:
		return "added"
	default:
		return "removed"
	}
}

func validateRef(op string, ref models.SetRef, member string) error {
	if !ref.Set.Valid() {
		return models.Invalid(op, "unknown set "+string(ref.Set))
	}
	if ref.OwnerID == "" {
		return models.Invalid(op, ref.Set.Entity()+" id is required")
	}
	if member == "" {
		return models.Invalid(op, "member id is required")
	}
	return nil
}

// observe records duration and error kind for a store call.
func observe(backend, operation string, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = models.KindOf(err).String()
	}
	metrics.RecordStoreOp(backend, operation, time.Since(start), kind, err)
}

func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return models.Wrap(op, err)
	}
	return nil
}

func limitNotifications(ns []*models.Notification, limit int) []*models.Notification {
	if limit > 0 && len(ns) > limit {
		return ns[:limit]
	}
	return ns
}

func validateNotifications(op string, ns []*models.Notification) error {
	for i, n := range ns {
		if n == nil || n.ID == "" || n.RecipientID == "" || n.Type == "" {
			return &models.Error{
				Kind:    models.KindValidation,
				Op:      op,
				Message: "notification " + strconv.Itoa(i) + " is missing id, recipient or type",
			}
		}
	}
	return nil
}
