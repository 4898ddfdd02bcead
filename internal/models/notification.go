// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import "time"

// NotificationType is the kind of in-app notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationNewPost NotificationType = "new_post"
)

// Notification is an append-only in-app notification record.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	SenderID    string           `json:"sender_id"`
	PostID      string           `json:"post_id"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PushMessage is a single best-effort push delivery request.
type PushMessage struct {
	DeviceToken string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}
