// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

// Key prefixes. Notification keys sort by recipient then creation time so a
// reverse prefix scan yields the newest first.
const (
	prefixUser         = "u/"
	prefixPost         = "p/"
	prefixCategory     = "c/"
	prefixNotification = "n/"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	Path       string
	SyncWrites bool
	// InMemory runs Badger without touching disk. Path is ignored.
	InMemory bool
	// ConflictRetries bounds how many times a transaction is retried after
	// badger.ErrConflict.
	ConflictRetries int

	// Tuning; zero keeps the Badger default.
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
}

// BadgerStore implements Store on BadgerDB. Every set mutation reads the
// owning document and writes it back inside one optimistic transaction.
// Writers of the same document are serialized in-process by striped locks;
// a conflict that still reaches Badger (ErrConflict) is retried against
// fresh data.
type BadgerStore struct {
	db      *badger.DB
	retries int
	locks   keyLocks
	logger  zerolog.Logger
	closed  atomic.Bool
}

// OpenBadger opens (or creates) the store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(o BadgerOptions, logger zerolog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if o.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		opts = badger.DefaultOptions(o.Path)
	}
	opts.SyncWrites = o.SyncWrites
	if o.MemTableSize > 0 {
		opts.MemTableSize = o.MemTableSize
	}
	if o.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = o.ValueLogFileSize
	}
	if o.NumCompactors > 0 {
		opts.NumCompactors = o.NumCompactors
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	retries := o.ConflictRetries
	if retries < 1 {
		retries = 16
	}
	s := &BadgerStore{
		db:      db,
		retries: retries,
		logger:  logger.With().Str("component", "store").Str("backend", BackendBadger).Logger(),
	}
	s.logger.Info().
		Str("path", o.Path).
		Bool("in_memory", o.InMemory).
		Bool("sync_writes", o.SyncWrites).
		Msg("Engagement store opened")
	return s, nil
}

// Backend implements Store.
func (s *BadgerStore) Backend() string { return BackendBadger }

// Close implements Store.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	s.logger.Info().Msg("Engagement store closed")
	return nil
}

// RunGC runs value log GC until Badger reports nothing left to rewrite.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	if s.closed.Load() {
		return errStoreClosed("store.RunGC")
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

func errStoreClosed(op string) error {
	return &models.Error{Kind: models.KindUnavailable, Op: op, Message: "store is closed"}
}

// mapErr tags raw Badger errors. Tagged errors pass through.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrDBClosed):
		return errStoreClosed(op)
	case errors.Is(err, badger.ErrTxnTooBig):
		return &models.Error{Kind: models.KindInternal, Op: op, Message: "batch exceeds transaction size limit", Err: err}
	default:
		return models.Wrap(op, err)
	}
}

func (s *BadgerStore) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctxErr(ctx, op); err != nil {
		return err
	}
	if s.closed.Load() {
		return errStoreClosed(op)
	}
	return mapErr(op, s.db.View(fn))
}

// update runs fn in a read-write transaction, retrying on ErrConflict with a
// short jittered backoff until the retry budget or the context runs out.
func (s *BadgerStore) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctxErr(ctx, op); err != nil {
			return err
		}
		if s.closed.Load() {
			return errStoreClosed(op)
		}

		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return mapErr(op, err)
		}
		if attempt >= s.retries {
			return &models.Error{
				Kind:    models.KindUnavailable,
				Op:      op,
				Message: fmt.Sprintf("gave up after %d conflicting attempts", attempt),
				Err:     err,
			}
		}

		metrics.StoreConflictRetries.WithLabelValues(BackendBadger).Inc()
		backoff := time.Duration(attempt) * time.Millisecond
		backoff += time.Duration(rand.Int64N(int64(time.Millisecond)))
		select {
		case <-ctx.Done():
			return models.Wrap(op, ctx.Err())
		case <-time.After(backoff):
		}
	}
}

func getJSON(txn *badger.Txn, key string, v interface{}) (bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func notificationKey(n *models.Notification) string {
	return fmt.Sprintf("%s%s/%020d/%s", prefixNotification, n.RecipientID, n.CreatedAt.UnixNano(), n.ID)
}

// PutUser implements UserStore.
func (s *BadgerStore) PutUser(ctx context.Context, u *models.User) error {
	const op = "store.PutUser"
	if u == nil || u.ID == "" {
		return models.Invalid(op, "user id is required")
	}
	c := u.Clone()
	c.Normalize()
	defer s.locks.lock(prefixUser + u.ID)()
	return s.update(ctx, op, func(txn *badger.Txn) error {
		return setJSON(txn, prefixUser+u.ID, c)
	})
}

// GetUser implements UserStore.
func (s *BadgerStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "store.GetUser"
	var u models.User
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		found, err := getJSON(txn, prefixUser+id, &u)
		if err == nil && !found {
			return models.NotFound(op, "user", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	u.Normalize()
	return &u, nil
}

// GetUsers implements UserStore.
func (s *BadgerStore) GetUsers(ctx context.Context, ids []string) ([]*models.User, error) {
	const op = "store.GetUsers"
	out := make([]*models.User, 0, len(ids))
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		for _, id := range ids {
			var u models.User
			found, err := getJSON(txn, prefixUser+id, &u)
			if err != nil {
				return err
			}
			if found {
				u.Normalize()
				out = append(out, &u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutCategory implements CategoryStore.
func (s *BadgerStore) PutCategory(ctx context.Context, c *models.Category) error {
	const op = "store.PutCategory"
	if c == nil || c.ID == "" {
		return models.Invalid(op, "category id is required")
	}
	return s.update(ctx, op, func(txn *badger.Txn) error {
		return setJSON(txn, prefixCategory+c.ID, c)
	})
}

// GetCategory implements CategoryStore.
func (s *BadgerStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	const op = "store.GetCategory"
	var c models.Category
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		found, err := getJSON(txn, prefixCategory+id, &c)
		if err == nil && !found {
			return models.NotFound(op, "category", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreatePost implements PostWriter.
func (s *BadgerStore) CreatePost(ctx context.Context, p *models.Post) (err error) {
	const op = "store.CreatePost"
	defer func(start time.Time) { observe(BackendBadger, "create_post", start, err) }(time.Now())
	if p == nil || p.ID == "" {
		return models.Invalid(op, "post id is required")
	}

	defer s.locks.lock(prefixPost+p.ID, prefixUser+p.AuthorID)()
	return s.update(ctx, op, func(txn *badger.Txn) error {
		var existing models.Post
		found, err := getJSON(txn, prefixPost+p.ID, &existing)
		if err != nil {
			return err
		}
		if found {
			return models.Conflict(op, "post", p.ID, "post already exists")
		}

		var author models.User
		found, err = getJSON(txn, prefixUser+p.AuthorID, &author)
		if err != nil {
			return err
		}
		if !found {
			return models.NotFound(op, "user", p.AuthorID)
		}
		author.Normalize()
		author.Posts.Add(p.ID)

		if err := setJSON(txn, prefixPost+p.ID, p); err != nil {
			return err
		}
		return setJSON(txn, prefixUser+author.ID, &author)
	})
}

// DeletePost implements PostWriter.
func (s *BadgerStore) DeletePost(ctx context.Context, id string) error {
	const op = "store.DeletePost"
	// AuthorID never changes, so the author read here names the same user
	// document the transaction below rewrites.
	current, err := s.GetPost(ctx, id)
	if err != nil {
		return models.Wrap(op, err)
	}
	defer s.locks.lock(prefixPost+id, prefixUser+current.AuthorID)()

	return s.update(ctx, op, func(txn *badger.Txn) error {
		var p models.Post
		found, err := getJSON(txn, prefixPost+id, &p)
		if err != nil {
			return err
		}
		if !found {
			return models.NotFound(op, "post", id)
		}
		if err := txn.Delete([]byte(prefixPost + id)); err != nil {
			return err
		}

		var author models.User
		found, err = getJSON(txn, prefixUser+p.AuthorID, &author)
		if err != nil || !found {
			return err
		}
		author.Normalize()
		if author.Posts.Remove(id) {
			return setJSON(txn, prefixUser+author.ID, &author)
		}
		return nil
	})
}

// UpdatePost implements PostWriter.
func (s *BadgerStore) UpdatePost(ctx context.Context, id string, patch *models.PostPatch) (p *models.Post, err error) {
	const op = "store.UpdatePost"
	defer func(start time.Time) { observe(BackendBadger, "update_post", start, err) }(time.Now())
	if patch == nil {
		return nil, models.Invalid(op, "patch is required")
	}

	defer s.locks.lock(prefixPost + id)()
	var updated models.Post
	err = s.update(ctx, op, func(txn *badger.Txn) error {
		updated = models.Post{}
		found, err := getJSON(txn, prefixPost+id, &updated)
		if err != nil {
			return err
		}
		if !found {
			return models.NotFound(op, "post", id)
		}
		patch.Apply(&updated, time.Now().UTC())
		return setJSON(txn, prefixPost+id, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RecordView implements PostWriter.
func (s *BadgerStore) RecordView(ctx context.Context, postID string) (int64, error) {
	const op = "store.RecordView"
	var views int64
	defer s.locks.lock(prefixPost + postID)()
	err := s.update(ctx, op, func(txn *badger.Txn) error {
		var p models.Post
		found, err := getJSON(txn, prefixPost+postID, &p)
		if err != nil {
			return err
		}
		if !found {
			return models.NotFound(op, "post", postID)
		}
		p.Views++
		views = p.Views
		return setJSON(txn, prefixPost+postID, &p)
	})
	return views, err
}

// GetPost implements PostReader.
func (s *BadgerStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	const op = "store.GetPost"
	var p models.Post
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		found, err := getJSON(txn, prefixPost+id, &p)
		if err == nil && !found {
			return models.NotFound(op, "post", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPosts implements PostReader.
func (s *BadgerStore) GetPosts(ctx context.Context, ids []string) ([]*models.Post, error) {
	const op = "store.GetPosts"
	out := make([]*models.Post, 0, len(ids))
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		for _, id := range ids {
			var p models.Post
			found, err := getJSON(txn, prefixPost+id, &p)
			if err != nil {
				return err
			}
			if found {
				out = append(out, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryPosts implements PostReader with a full prefix scan over posts inside
// one read transaction, so the result is a point-in-time snapshot.
func (s *BadgerStore) QueryPosts(ctx context.Context, q models.PostQuery) (posts []*models.Post, err error) {
	const op = "store.QueryPosts"
	defer func(start time.Time) { observe(BackendBadger, "query_posts", start, err) }(time.Now())

	err = s.view(ctx, op, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPost)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p models.Post
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if q.Matches(&p) {
				posts = append(posts, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool { return q.Less(posts[i], posts[j]) })
	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	return posts, nil
}

// Toggle implements SetStore.
func (s *BadgerStore) Toggle(ctx context.Context, ref models.SetRef, member string) (bool, int, error) {
	members, isMember, err := s.mutate(ctx, "store.Toggle", opToggle, ref, member)
	if err != nil {
		return false, 0, err
	}
	return isMember, len(members), nil
}

// AddUnique implements SetStore.
func (s *BadgerStore) AddUnique(ctx context.Context, ref models.SetRef, member string) ([]string, error) {
	members, _, err := s.mutate(ctx, "store.AddUnique", opAddUnique, ref, member)
	return members, err
}

// Remove implements SetStore.
func (s *BadgerStore) Remove(ctx context.Context, ref models.SetRef, member string) ([]string, error) {
	members, _, err := s.mutate(ctx, "store.Remove", opRemove, ref, member)
	return members, err
}

func (s *BadgerStore) mutate(ctx context.Context, op string, sop setOp, ref models.SetRef, member string) (members []string, isMember bool, err error) {
	start := time.Now()
	changed := false
	defer func() {
		observe(BackendBadger, sop.String(), start, err)
		metrics.RecordSetMutation(string(ref.Set), mutationResult(changed, isMember, err))
	}()

	if err = validateRef(op, ref, member); err != nil {
		return nil, false, err
	}

	docKey := prefixUser + ref.OwnerID
	if ref.Set.OnPost() {
		docKey = prefixPost + ref.OwnerID
	}
	defer s.locks.lock(docKey)()

	err = s.update(ctx, op, func(txn *badger.Txn) error {
		// Results are reset on every attempt; only the committed one counts.
		members, isMember, changed = nil, false, false

		if ref.Set.OnPost() {
			var p models.Post
			key := prefixPost + ref.OwnerID
			found, err := getJSON(txn, key, &p)
			if err != nil {
				return err
			}
			if !found {
				return models.NotFound(op, "post", ref.OwnerID)
			}
			set, _ := models.PostSet(&p, ref.Set)
			if changed, isMember, err = applySetOp(set, sop, ref, member); err != nil {
				return err
			}
			members = set.Sorted()
			if !changed {
				return nil
			}
			return setJSON(txn, key, &p)
		}

		var u models.User
		key := prefixUser + ref.OwnerID
		found, err := getJSON(txn, key, &u)
		if err != nil {
			return err
		}
		if !found {
			return models.NotFound(op, "user", ref.OwnerID)
		}
		set, _ := models.UserSet(&u, ref.Set)
		if changed, isMember, err = applySetOp(set, sop, ref, member); err != nil {
			return err
		}
		members = set.Sorted()
		if !changed {
			return nil
		}
		return setJSON(txn, key, &u)
	})
	if err != nil {
		return nil, false, err
	}
	return members, isMember, nil
}

// InsertNotifications implements NotificationStore. All records go into one
// transaction; Badger commits it atomically or not at all.
func (s *BadgerStore) InsertNotifications(ctx context.Context, ns []*models.Notification) (err error) {
	const op = "store.InsertNotifications"
	defer func(start time.Time) { observe(BackendBadger, "insert_notifications", start, err) }(time.Now())
	if err := validateNotifications(op, ns); err != nil {
		return err
	}
	if len(ns) == 0 {
		return nil
	}
	return s.update(ctx, op, func(txn *badger.Txn) error {
		for _, n := range ns {
			if err := setJSON(txn, notificationKey(n), n); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListNotifications implements NotificationStore.
func (s *BadgerStore) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	const op = "store.ListNotifications"
	prefix := []byte(prefixNotification + recipientID + "/")
	var out []*models.Notification

	err := s.view(ctx, op, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var n models.Notification
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			out = append(out, &n)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ Store = (*BadgerStore)(nil)
