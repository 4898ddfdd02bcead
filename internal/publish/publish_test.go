// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package publish

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/fanout"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/store"
)

type pushLog struct {
	mu   sync.Mutex
	sent []models.PushMessage
}

func (p *pushLog) Send(_ context.Context, msg models.PushMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
}

// failingBatches rejects every notification batch.
type failingBatches struct{}

func (failingBatches) InsertNotifications(context.Context, []*models.Notification) error {
	return errors.New("write failed")
}

func seed(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	if err := s.PutCategory(ctx, &models.Category{ID: "tech", Name: "Tech"}); err != nil {
		t.Fatal(err)
	}
	for _, u := range []*models.User{
		{ID: "author", Name: "Ada"},
		{ID: "f1", Name: "F1", DeviceToken: "t1"},
		{ID: "f2", Name: "F2"},
		{ID: "f3", Name: "F3", DeviceToken: "t3"},
	} {
		if err := s.PutUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"f1", "f2", "f3"} {
		if _, err := s.AddUnique(ctx, models.SetRef{OwnerID: "author", Set: models.SetUserFollowers}, f); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func draft() *models.PostDraft {
	return &models.PostDraft{
		AuthorID:   "author",
		CategoryID: "tech",
		Title:      "Hello",
		Content:    "First post",
		Tags:       []string{"intro"},
	}
}

func TestPublishToFollowers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seed(t)
	pushes := &pushLog{}
	d := fanout.NewDispatcher(s, pushes, fanout.Config{Workers: 2}, zerolog.Nop())
	defer func() { _ = d.Shutdown(ctx) }()
	svc := NewService(s, d, zerolog.Nop())

	before := testutil.ToFloat64(metrics.PostsPublished)
	post, err := svc.PublishToFollowers(ctx, draft())
	if err != nil {
		t.Fatalf("PublishToFollowers() error = %v", err)
	}
	d.Wait()

	if post.ID == "" || post.AuthorID != "author" || post.Likes == nil {
		t.Errorf("post = %+v", post)
	}
	author, _ := s.GetUser(ctx, "author")
	if !author.Posts.Has(post.ID) {
		t.Error("post not added to author's posts")
	}

	for _, f := range []string{"f1", "f2", "f3"} {
		ns, _ := s.ListNotifications(ctx, f, 0)
		if len(ns) != 1 || ns[0].PostID != post.ID || ns[0].Type != models.NotificationNewPost {
			t.Errorf("%s notifications = %+v, want one new_post for %s", f, ns, post.ID)
		}
	}
	pushes.mu.Lock()
	if len(pushes.sent) != 2 {
		t.Errorf("pushes = %d, want 2 (f2 has no token)", len(pushes.sent))
	}
	pushes.mu.Unlock()

	if got := testutil.ToFloat64(metrics.PostsPublished) - before; got < 1 {
		t.Errorf("posts published delta = %v", got)
	}
}

func TestPublish_Errors(t *testing.T) {
	t.Parallel()

	s := seed(t)
	d := fanout.NewDispatcher(s, &pushLog{}, fanout.Config{}, zerolog.Nop())
	defer func() { _ = d.Shutdown(context.Background()) }()
	svc := NewService(s, d, zerolog.Nop())

	tests := []struct {
		name   string
		mutate func(*models.PostDraft)
		kind   models.ErrorKind
	}{
		{"unknown category", func(p *models.PostDraft) { p.CategoryID = "cooking" }, models.KindNotFound},
		{"blank title", func(p *models.PostDraft) { p.Title = "   " }, models.KindValidation},
		{"missing content", func(p *models.PostDraft) { p.Content = "" }, models.KindValidation},
		{"bad image url", func(p *models.PostDraft) { p.Images = []string{"not a url"} }, models.KindValidation},
		{"title too long", func(p *models.PostDraft) { p.Title = strings.Repeat("x", 201) }, models.KindValidation},
		{"unknown author", func(p *models.PostDraft) { p.AuthorID = "ghost" }, models.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := draft()
			tt.mutate(d)
			_, err := svc.Publish(context.Background(), d, nil)
			if !models.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}

	if _, err := svc.Publish(context.Background(), nil, nil); !models.IsKind(err, models.KindValidation) {
		t.Errorf("nil draft error = %v", err)
	}
}

func TestPublish_BatchFailureCompensates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seed(t)
	pushes := &pushLog{}
	d := fanout.NewDispatcher(failingBatches{}, pushes, fanout.Config{}, zerolog.Nop())
	defer func() { _ = d.Shutdown(ctx) }()
	svc := NewService(s, d, zerolog.Nop())
	svc.newID = func() string { return "fixed-id" }

	_, err := svc.PublishToFollowers(ctx, draft())
	if !models.IsKind(err, models.KindInternal) {
		t.Fatalf("error = %v, want Internal", err)
	}
	d.Wait()

	if _, err := s.GetPost(ctx, "fixed-id"); !models.IsKind(err, models.KindNotFound) {
		t.Errorf("post still present after failed fan-out: %v", err)
	}
	author, _ := s.GetUser(ctx, "author")
	if author.Posts.Has("fixed-id") {
		t.Error("author posts still references removed post")
	}
	if len(pushes.sent) != 0 {
		t.Errorf("pushes sent = %d, want 0", len(pushes.sent))
	}
}

func TestPublish_NoFollowers(t *testing.T) {
	t.Parallel()

	s := seed(t)
	d := fanout.NewDispatcher(s, &pushLog{}, fanout.Config{}, zerolog.Nop())
	defer func() { _ = d.Shutdown(context.Background()) }()
	svc := NewService(s, d, zerolog.Nop())

	if _, err := svc.Publish(context.Background(), draft(), nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}
