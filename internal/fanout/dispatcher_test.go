// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package fanout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/notifier"
	"github.com/tomtom215/murmur/internal/store"
)

// recorder is a Notifier and NotificationWriter that logs call order.
type recorder struct {
	mu     sync.Mutex
	events []string
	pushes []models.PushMessage
	failOn string // device token whose push "fails"
}

func (r *recorder) Send(_ context.Context, msg models.PushMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "push")
	if msg.DeviceToken == r.failOn {
		return
	}
	r.pushes = append(r.pushes, msg)
}

func (r *recorder) tokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pushes))
	for _, p := range r.pushes {
		out = append(out, p.DeviceToken)
	}
	sort.Strings(out)
	return out
}

type orderedWriter struct {
	rec  *recorder
	next NotificationWriter
	err  error
}

func (w *orderedWriter) InsertNotifications(ctx context.Context, ns []*models.Notification) error {
	w.rec.mu.Lock()
	w.rec.events = append(w.rec.events, "batch")
	w.rec.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	return w.next.InsertNotifications(ctx, ns)
}

func newTestDispatcher(t *testing.T, w NotificationWriter, n notifier.Notifier) *Dispatcher {
	t.Helper()
	d := NewDispatcher(w, n, Config{Workers: 4, QueueSize: 2}, zerolog.Nop())
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })
	return d
}

func user(id, token string) *models.User {
	return &models.User{ID: id, Name: "Name " + id, DeviceToken: token}
}

func TestFanOutNewPost_OneNotificationPerFollower(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorder{}
	d := newTestDispatcher(t, s, rec)

	author := user("author", "tok-author")
	post := &models.Post{ID: "p1", AuthorID: "author"}
	followers := []*models.User{
		user("f1", "tok-1"),
		user("f2", ""),
		user("f3", "tok-3"),
		user("f1", "tok-1"), // duplicate
		author,              // never notified of own post
	}

	if err := d.FanOutNewPost(ctx, post, author, followers); err != nil {
		t.Fatalf("FanOutNewPost() error = %v", err)
	}
	d.Wait()

	for _, id := range []string{"f1", "f2", "f3"} {
		ns, err := s.ListNotifications(ctx, id, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(ns) != 1 {
			t.Fatalf("%s has %d notifications, want 1", id, len(ns))
		}
		n := ns[0]
		if n.PostID != "p1" || n.Type != models.NotificationNewPost || n.SenderID != "author" {
			t.Errorf("%s notification = %+v", id, n)
		}
		if n.Message != "Name author has posted something new." {
			t.Errorf("message = %q", n.Message)
		}
	}
	if ns, _ := s.ListNotifications(ctx, "author", 0); len(ns) != 0 {
		t.Errorf("author received %d notifications", len(ns))
	}

	got := rec.tokens()
	if len(got) != 2 || got[0] != "tok-1" || got[1] != "tok-3" {
		t.Errorf("pushed tokens = %v, want [tok-1 tok-3]", got)
	}
	for _, p := range rec.pushes {
		if p.Title != TitleNewPost {
			t.Errorf("title = %q", p.Title)
		}
	}
}

func TestFanOutNewPost_PersistsBeforePush(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	w := &orderedWriter{rec: rec, next: store.NewMemoryStore()}
	d := newTestDispatcher(t, w, rec)

	followers := []*models.User{user("f1", "a"), user("f2", "b"), user("f3", "c")}
	if err := d.FanOutNewPost(context.Background(), &models.Post{ID: "p1"}, user("author", ""), followers); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 4 || rec.events[0] != "batch" {
		t.Errorf("events = %v, want batch first then 3 pushes", rec.events)
	}
}

func TestFanOutNewPost_BatchFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	w := &orderedWriter{rec: rec, err: errors.New("disk full")}
	d := newTestDispatcher(t, w, rec)

	err := d.FanOutNewPost(context.Background(), &models.Post{ID: "p1"}, user("author", ""),
		[]*models.User{user("f1", "a"), user("f2", "b")})
	d.Wait()

	if !models.IsKind(err, models.KindInternal) {
		t.Fatalf("error = %v, want Internal", err)
	}
	if len(rec.tokens()) != 0 {
		t.Errorf("pushes sent after failed batch: %v", rec.tokens())
	}
}

func TestFanOutNewPost_PushIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorder{failOn: "tok-2"}
	d := newTestDispatcher(t, s, rec)

	followers := []*models.User{user("f1", "tok-1"), user("f2", "tok-2"), user("f3", "tok-3")}
	if err := d.FanOutNewPost(ctx, &models.Post{ID: "p1"}, user("author", ""), followers); err != nil {
		t.Fatalf("FanOutNewPost() error = %v, want success despite push failure", err)
	}
	d.Wait()

	got := rec.tokens()
	if len(got) != 2 || got[0] != "tok-1" || got[1] != "tok-3" {
		t.Errorf("delivered = %v, want [tok-1 tok-3]", got)
	}
	for _, id := range []string{"f1", "f2", "f3"} {
		if ns, _ := s.ListNotifications(ctx, id, 0); len(ns) != 1 {
			t.Errorf("%s notifications = %d, want 1", id, len(ns))
		}
	}
}

func TestFanOutNewPost_NoFollowers(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	w := &orderedWriter{rec: rec, next: store.NewMemoryStore()}
	d := newTestDispatcher(t, w, rec)

	if err := d.FanOutNewPost(context.Background(), &models.Post{ID: "p1"}, user("a", ""), nil); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.events)
	}
}

func TestFanOutNewPost_DetachedFromRequest(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := newTestDispatcher(t, store.NewMemoryStore(), rec)

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.FanOutNewPost(ctx, &models.Post{ID: "p1"}, user("a", ""), []*models.User{user("f1", "tok")}); err != nil {
		t.Fatal(err)
	}
	cancel() // request finished
	d.Wait()

	if got := rec.tokens(); len(got) != 1 {
		t.Errorf("pushes = %v, want 1 after request cancel", got)
	}
}

func TestFanOutLike(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorder{}
	d := newTestDispatcher(t, s, rec)

	author := user("author", "tok-author")
	post := &models.Post{ID: "p1", AuthorID: "author"}

	if err := d.FanOutLike(ctx, post, author, user("liker", "")); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	ns, _ := s.ListNotifications(ctx, "author", 0)
	if len(ns) != 1 || ns[0].Type != models.NotificationLike || ns[0].Message != "Name liker liked your post." {
		t.Fatalf("notifications = %+v", ns)
	}
	if got := rec.tokens(); len(got) != 1 || got[0] != "tok-author" {
		t.Errorf("pushes = %v", got)
	}
	if rec.pushes[0].Title != TitleLike {
		t.Errorf("title = %q", rec.pushes[0].Title)
	}
}

func TestDispatcher_WaitDuringLiveTraffic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorder{}
	d := newTestDispatcher(t, s, rec)
	post := &models.Post{ID: "p1", AuthorID: "author"}
	author := user("author", "tok-author")

	const likers = 50
	var wg sync.WaitGroup
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			liker := user("liker-"+string(rune('a'+i%26))+string(rune('a'+i/26)), "")
			if err := d.FanOutLike(ctx, post, author, liker); err != nil {
				t.Errorf("FanOutLike() error = %v", err)
			}
		}(i)
	}
	stop := make(chan struct{})
	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		for {
			select {
			case <-stop:
				return
			default:
				d.Wait()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-waiterDone
	d.Wait()

	if got := len(rec.tokens()); got != likers {
		t.Errorf("pushes = %d, want %d", got, likers)
	}
}

func TestFanOutLike_SelfLikeSuppressed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := &recorder{}
	d := newTestDispatcher(t, s, rec)

	author := user("author", "tok")
	if err := d.FanOutLike(ctx, &models.Post{ID: "p1"}, author, author); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	if ns, _ := s.ListNotifications(ctx, "author", 0); len(ns) != 0 {
		t.Errorf("self like created %d notifications", len(ns))
	}
	if len(rec.tokens()) != 0 {
		t.Error("self like pushed")
	}
}

func TestDispatcher_ManyPushesWithSmallQueue(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := newTestDispatcher(t, store.NewMemoryStore(), rec)

	followers := make([]*models.User, 0, 50)
	for i := 0; i < 50; i++ {
		id := string(rune('A'+i%26)) + string(rune('a'+i/26))
		followers = append(followers, user(id, "tok-"+id))
	}

	start := time.Now()
	if err := d.FanOutNewPost(context.Background(), &models.Post{ID: "p1"}, user("author", ""), followers); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("FanOutNewPost blocked for %v", elapsed)
	}
	d.Wait()
	if got := len(rec.tokens()); got != 50 {
		t.Errorf("pushes = %d, want 50", got)
	}
}

func TestDispatcher_ShutdownDropsLatePushes(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := NewDispatcher(store.NewMemoryStore(), rec, Config{Workers: 1}, zerolog.Nop())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}

	if err := d.FanOutLike(context.Background(), &models.Post{ID: "p1"}, user("a", "tok"), user("b", "")); err != nil {
		t.Fatal(err)
	}
	d.Wait()
	if len(rec.tokens()) != 0 {
		t.Error("push delivered after shutdown")
	}
}
