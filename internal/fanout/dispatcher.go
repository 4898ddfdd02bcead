// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package fanout turns engagement events into notification records and push
// messages.
//
// Every event is persisted first, as one all-or-nothing batch, and only then
// handed to a bounded pool of push workers. Push runs detached from the
// request: the caller returns as soon as the batch is durable, and a slow or
// failing device never holds up the request or the other recipients.
package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/notifier"
)

// Push titles and message templates.
const (
	TitleNewPost = "New Post!"
	TitleLike    = "New Like!"

	newPostSuffix = " has posted something new."
	likeSuffix    = " liked your post."
)

// NotificationWriter persists notification batches.
type NotificationWriter interface {
	InsertNotifications(ctx context.Context, ns []*models.Notification) error
}

// Config sizes the push worker pool.
type Config struct {
	// Workers is the number of concurrent push deliveries.
	Workers int
	// QueueSize is the buffer between fan-out calls and the workers.
	QueueSize int
}

type pushJob struct {
	ctx context.Context
	msg models.PushMessage
}

// Dispatcher writes notification batches and dispatches push messages.
type Dispatcher struct {
	store    NotificationWriter
	notifier notifier.Notifier
	logger   zerolog.Logger

	jobs    chan pushJob
	workers sync.WaitGroup
	pending sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	now   func() time.Time
	newID func() string
}

// NewDispatcher starts cfg.Workers push workers.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDispatcher(store NotificationWriter, n notifier.Notifier, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}

	d := &Dispatcher{
		store:    store,
		notifier: n,
		logger:   logger.With().Str("component", "fanout").Logger(),
		jobs:     make(chan pushJob, cfg.QueueSize),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workers.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for job := range d.jobs {
		metrics.PushQueueDepth.Dec()
		d.notifier.Send(job.ctx, job.msg)
		d.pending.Done()
	}
}

// FanOutNewPost records one new_post notification per follower, then pushes
// to every follower with a device token. Duplicate followers and the author
// are skipped. A failed batch write returns an Internal error and no push is
// sent.
func (d *Dispatcher) FanOutNewPost(ctx context.Context, post *models.Post, author *models.User, followers []*models.User) error {
	const op = "fanout.NewPost"
	if post == nil || author == nil {
		return models.Invalid(op, "post and author are required")
	}

	message := author.DisplayName() + newPostSuffix
	now := d.now()
	seen := make(map[string]struct{}, len(followers))
	batch := make([]*models.Notification, 0, len(followers))
	pushes := make([]models.PushMessage, 0, len(followers))

	for _, f := range followers {
		if f == nil || f.ID == "" || f.ID == author.ID {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}

		n := &models.Notification{
			ID:          d.newID(),
			RecipientID: f.ID,
			SenderID:    author.ID,
			PostID:      post.ID,
			Type:        models.NotificationNewPost,
			Message:     message,
			CreatedAt:   now,
		}
		batch = append(batch, n)
		if f.DeviceToken != "" {
			pushes = append(pushes, pushFor(n, f.DeviceToken, TitleNewPost))
		}
	}

	if len(batch) == 0 {
		return nil
	}
	if err := d.persist(ctx, op, post.ID, models.NotificationNewPost, batch); err != nil {
		return err
	}
	d.dispatch(ctx, pushes)

	logging.Ctx(ctx).Debug().
		Str("post_id", post.ID).
		Int("notifications", len(batch)).
		Int("pushes", len(pushes)).
		Msg("New post fanned out")
	return nil
}

// FanOutLike records a like notification for the post author and pushes it.
// Likes on one's own post are ignored.
func (d *Dispatcher) FanOutLike(ctx context.Context, post *models.Post, author, liker *models.User) error {
	const op = "fanout.Like"
	if post == nil || author == nil || liker == nil {
		return models.Invalid(op, "post, author and liker are required")
	}
	if liker.ID == author.ID {
		return nil
	}

	n := &models.Notification{
		ID:          d.newID(),
		RecipientID: author.ID,
		SenderID:    liker.ID,
		PostID:      post.ID,
		Type:        models.NotificationLike,
		Message:     liker.DisplayName() + likeSuffix,
		CreatedAt:   d.now(),
	}
	if err := d.persist(ctx, op, post.ID, models.NotificationLike, []*models.Notification{n}); err != nil {
		return err
	}
	if author.DeviceToken != "" {
		d.dispatch(ctx, []models.PushMessage{pushFor(n, author.DeviceToken, TitleLike)})
	}
	return nil
}

func (d *Dispatcher) persist(ctx context.Context, op, postID string, typ models.NotificationType, batch []*models.Notification) error {
	err := d.store.InsertNotifications(ctx, batch)
	metrics.RecordNotificationBatch(string(typ), len(batch), err)
	if err == nil {
		return nil
	}

	logging.Ctx(ctx).Error().Err(err).
		Str("post_id", postID).
		Str("type", string(typ)).
		Int("size", len(batch)).
		Msg("Notification batch write failed")

	return &models.Error{
		Kind:    models.KindInternal,
		Op:      op,
		Entity:  "post",
		ID:      postID,
		Message: "notification batch write failed",
		Err:     err,
	}
}

// dispatch queues msgs for the workers without blocking the caller. Request
// values (request id, user id) survive for logging; cancellation does not.
func (d *Dispatcher) dispatch(ctx context.Context, msgs []models.PushMessage) {
	if len(msgs) == 0 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn().Int("pushes", len(msgs)).Msg("Dispatcher closed, dropping pushes")
		return
	}

	jobCtx := context.WithoutCancel(ctx)
	d.pending.Add(len(msgs))
	go func() {
		for _, m := range msgs {
			metrics.PushQueueDepth.Inc()
			d.jobs <- pushJob{ctx: jobCtx, msg: m}
		}
	}()
}

// Wait blocks until every queued push has been handed to the notifier. New
// pushes are held back until it returns, so it is safe to call while other
// goroutines are still fanning out.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending.Wait()
}

// Shutdown stops accepting pushes and drains the queue, or gives up when ctx
// ends. Safe to call more than once.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(d.jobs)
		d.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		d.logger.Info().Msg("Push queue drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Msg("Shutdown deadline reached with pushes still queued")
		return ctx.Err()
	}
}

func pushFor(n *models.Notification, token, title string) models.PushMessage {
	return models.PushMessage{
		DeviceToken: token,
		Title:       title,
		Body:        n.Message,
		Data: map[string]string{
			"notificationId": n.ID,
			"postId":         n.PostID,
			"type":           string(n.Type),
		},
	}
}
