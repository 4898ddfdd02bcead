// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/models"
)

// Transport names.
const (
	TransportLog     = "log"
	TransportWebhook = "webhook"
)

// WebhookTransport posts FCM-style JSON payloads to a push gateway.
type WebhookTransport struct {
	url       string
	serverKey string
	client    *http.Client
}

// webhookPayload is the legacy FCM HTTP shape, which most gateways accept.
type webhookPayload struct {
	To           string            `json:"to"`
	Notification webhookBody       `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type webhookBody struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewWebhookTransport validates rawURL and returns a transport. The HTTP
// client has no timeout of its own; PushNotifier bounds each call.
func NewWebhookTransport(rawURL, serverKey string) (*WebhookTransport, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid push webhook URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("push webhook URL must use http or https")
	}
	return &WebhookTransport{
		url:       rawURL,
		serverKey: serverKey,
		client:    &http.Client{},
	}, nil
}

// Name implements Transport.
func (t *WebhookTransport) Name() string { return TransportWebhook }

// Deliver implements Transport. 2xx is success; 400, 401, 403, 404 and 410
// are permanent rejections; anything else is a transient failure.
func (t *WebhookTransport) Deliver(ctx context.Context, msg models.PushMessage) error {
	body, err := json.Marshal(webhookPayload{
		To:           msg.DeviceToken,
		Notification: webhookBody{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Murmur-Push/1.0")
	if t.serverKey != "" {
		req.Header.Set("Authorization", "key="+t.serverKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(detail))
	default:
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
}
