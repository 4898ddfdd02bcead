// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

// MemoryStore keeps every document in process memory. Documents are cloned
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	posts         map[string]*models.Post
	categories    map[string]*models.Category
	notifications map[string][]*models.Notification // by recipient, append order
	closed        bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		posts:         make(map[string]*models.Post),
		categories:    make(map[string]*models.Category),
		notifications: make(map[string][]*models.Notification),
	}
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close implements Store. Calls after Close fail with Unavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// guard checks the context and the closed flag. Callers hold s.mu.
func (s *MemoryStore) guard(ctx context.Context, op string) error {
	if err := ctxErr(ctx, op); err != nil {
		return err
	}
	if s.closed {
		return &models.Error{Kind: models.KindUnavailable, Op: op, Message: "store is closed"}
	}
	return nil
}

// PutUser implements UserStore. It replaces any existing user with the same ID.
func (s *MemoryStore) PutUser(ctx context.Context, u *models.User) error {
	const op = "store.PutUser"
	if u == nil || u.ID == "" {
		return models.Invalid(op, "user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return err
	}
	c := u.Clone()
	c.Normalize()
	s.users[u.ID] = c
	return nil
}

// GetUser implements UserStore.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "store.GetUser"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, models.NotFound(op, "user", id)
	}
	return u.Clone(), nil
}

// GetUsers implements UserStore.
func (s *MemoryStore) GetUsers(ctx context.Context, ids []string) ([]*models.User, error) {
	const op = "store.GetUsers"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

// PutCategory implements CategoryStore.
func (s *MemoryStore) PutCategory(ctx context.Context, c *models.Category) error {
	const op = "store.PutCategory"
	if c == nil || c.ID == "" {
		return models.Invalid(op, "category id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return err
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

// GetCategory implements CategoryStore.
func (s *MemoryStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	const op = "store.GetCategory"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	c, ok := s.categories[id]
	if !ok {
		return nil, models.NotFound(op, "category", id)
	}
	cp := *c
	return &cp, nil
}

// CreatePost implements PostWriter.
func (s *MemoryStore) CreatePost(ctx context.Context, p *models.Post) (err error) {
	const op = "store.CreatePost"
	defer func(start time.Time) { observe(BackendMemory, "create_post", start, err) }(time.Now())
	if p == nil || p.ID == "" {
		return models.Invalid(op, "post id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return err
	}
	if _, exists := s.posts[p.ID]; exists {
		return models.Conflict(op, "post", p.ID, "post already exists")
	}
	author, ok := s.users[p.AuthorID]
	if !ok {
		return models.NotFound(op, "user", p.AuthorID)
	}
	c := p.Clone()
	s.posts[p.ID] = c
	author.Normalize()
	author.Posts.Add(p.ID)
	return nil
}

// DeletePost implements PostWriter.
func (s *MemoryStore) DeletePost(ctx context.Context, id string) error {
	const op = "store.DeletePost"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return err
	}
	p, ok := s.posts[id]
	if !ok {
		return models.NotFound(op, "post", id)
	}
	delete(s.posts, id)
	if author, ok := s.users[p.AuthorID]; ok {
		author.Posts.Remove(id)
	}
	return nil
}

// UpdatePost implements PostWriter.
func (s *MemoryStore) UpdatePost(ctx context.Context, id string, patch *models.PostPatch) (p *models.Post, err error) {
	const op = "store.UpdatePost"
	defer func(start time.Time) { observe(BackendMemory, "update_post", start, err) }(time.Now())
	if patch == nil {
		return nil, models.Invalid(op, "patch is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	stored, ok := s.posts[id]
	if !ok {
		return nil, models.NotFound(op, "post", id)
	}
	patch.Apply(stored, time.Now().UTC())
	return stored.Clone(), nil
}

// RecordView implements PostWriter.
func (s *MemoryStore) RecordView(ctx context.Context, postID string) (int64, error) {
	const op = "store.RecordView"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return 0, err
	}
	p, ok := s.posts[postID]
	if !ok {
		return 0, models.NotFound(op, "post", postID)
	}
	p.Views++
	return p.Views, nil
}

// GetPost implements PostReader.
func (s *MemoryStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	const op = "store.GetPost"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NotFound(op, "post", id)
	}
	return p.Clone(), nil
}

// GetPosts implements PostReader.
func (s *MemoryStore) GetPosts(ctx context.Context, ids []string) ([]*models.Post, error) {
	const op = "store.GetPosts"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// QueryPosts implements PostReader.
func (s *MemoryStore) QueryPosts(ctx context.Context, q models.PostQuery) (posts []*models.Post, err error) {
	const op = "store.QueryPosts"
	defer func(start time.Time) { observe(BackendMemory, "query_posts", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	for _, p := range s.posts {
		if q.Matches(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return q.Less(posts[i], posts[j]) })
	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	for i, p := range posts {
		posts[i] = p.Clone()
	}
	return posts, nil
}

// Toggle implements SetStore.
func (s *MemoryStore) Toggle(ctx context.Context, ref models.SetRef, member string) (bool, int, error) {
	set, isMember, err := s.mutate(ctx, "store.Toggle", opToggle, ref, member)
	if err != nil {
		return false, 0, err
	}
	return isMember, len(set), nil
}

// AddUnique implements SetStore.
func (s *MemoryStore) AddUnique(ctx context.Context, ref models.SetRef, member string) ([]string, error) {
	set, _, err := s.mutate(ctx, "store.AddUnique", opAddUnique, ref, member)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Remove implements SetStore.
func (s *MemoryStore) Remove(ctx context.Context, ref models.SetRef, member string) ([]string, error) {
	set, _, err := s.mutate(ctx, "store.Remove", opRemove, ref, member)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// mutate holds the write lock for the whole check-then-mutate.
func (s *MemoryStore) mutate(ctx context.Context, op string, sop setOp, ref models.SetRef, member string) (members []string, isMember bool, err error) {
	start := time.Now()
	changed := false
	defer func() {
		observe(BackendMemory, sop.String(), start, err)
		metrics.RecordSetMutation(string(ref.Set), mutationResult(changed, isMember, err))
	}()

	if err = validateRef(op, ref, member); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.guard(ctx, op); err != nil {
		return nil, false, err
	}

	var set *models.IDSet
	if ref.Set.OnPost() {
		p, ok := s.posts[ref.OwnerID]
		if !ok {
			return nil, false, models.NotFound(op, "post", ref.OwnerID)
		}
		set, _ = models.PostSet(p, ref.Set)
	} else {
		u, ok := s.users[ref.OwnerID]
		if !ok {
			return nil, false, models.NotFound(op, "user", ref.OwnerID)
		}
		set, _ = models.UserSet(u, ref.Set)
	}

	changed, isMember, err = applySetOp(set, sop, ref, member)
	if err != nil {
		return nil, isMember, err
	}
	return set.Sorted(), isMember, nil
}

// InsertNotifications implements NotificationStore. The whole batch is
// validated before anything is appended.
func (s *MemoryStore) InsertNotifications(ctx context.Context, ns []*models.Notification) (err error) {
	const op = "store.InsertNotifications"
	defer func(start time.Time) { observe(BackendMemory, "insert_notifications", start, err) }(time.Now())
	if err := validateNotifications(op, ns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(ctx, op); err != nil {
		return err
	}
	for _, n := range ns {
		cp := *n
		s.notifications[n.RecipientID] = append(s.notifications[n.RecipientID], &cp)
	}
	return nil
}

// ListNotifications implements NotificationStore.
func (s *MemoryStore) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	const op = "store.ListNotifications"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guard(ctx, op); err != nil {
		return nil, err
	}
	src := s.notifications[recipientID]
	out := make([]*models.Notification, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		cp := *src[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limitNotifications(out, limit), nil
}

var _ Store = (*MemoryStore)(nil)
