// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreOp(t *testing.T) {
	before := testutil.ToFloat64(StoreErrors.WithLabelValues("memory", "toggle", "not_found"))

	RecordStoreOp("memory", "toggle", time.Millisecond, "", nil)
	RecordStoreOp("memory", "toggle", time.Millisecond, "not_found", errors.New("missing"))

	after := testutil.ToFloat64(StoreErrors.WithLabelValues("memory", "toggle", "not_found"))
	if after-before != 1 {
		t.Errorf("StoreErrors delta = %v, want 1", after-before)
	}
}

func TestRecordNotificationBatch(t *testing.T) {
	written := NotificationsWritten.WithLabelValues("new_post")
	failed := NotificationBatchFailures.WithLabelValues("new_post")
	w0, f0 := testutil.ToFloat64(written), testutil.ToFloat64(failed)

	RecordNotificationBatch("new_post", 3, nil)
	RecordNotificationBatch("new_post", 3, errors.New("disk full"))

	if d := testutil.ToFloat64(written) - w0; d != 3 {
		t.Errorf("written delta = %v, want 3", d)
	}
	if d := testutil.ToFloat64(failed) - f0; d != 1 {
		t.Errorf("failed delta = %v, want 1", d)
	}
}

func TestRecordRecommendation(t *testing.T) {
	served := RecommendationsServed.WithLabelValues("trending")
	s0, e0 := testutil.ToFloat64(served), testutil.ToFloat64(RecommendationsEmpty)

	RecordRecommendation("trending", time.Millisecond)
	RecordRecommendation("", time.Millisecond)

	if d := testutil.ToFloat64(served) - s0; d != 1 {
		t.Errorf("served delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(RecommendationsEmpty) - e0; d != 1 {
		t.Errorf("empty delta = %v, want 1", d)
	}
}

func TestRecordPushAndSetMutation(t *testing.T) {
	sent := PushResults.WithLabelValues("log", "sent")
	added := SetMutations.WithLabelValues("post.likes", "added")
	s0, a0 := testutil.ToFloat64(sent), testutil.ToFloat64(added)

	RecordPush("log", "sent", 5*time.Millisecond)
	RecordSetMutation("post.likes", "added")

	if testutil.ToFloat64(sent)-s0 != 1 || testutil.ToFloat64(added)-a0 != 1 {
		t.Error("push or set mutation counter did not advance")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	g0 := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if testutil.ToFloat64(APIActiveRequests) != g0+1 {
		t.Error("gauge did not increment")
	}
	TrackActiveRequest(false)
	if testutil.ToFloat64(APIActiveRequests) != g0 {
		t.Error("gauge did not decrement")
	}
	RecordAPIRequest("GET", "/api/v1/recommendations", "200", time.Millisecond)
}

func TestRecordAuthzDecision(t *testing.T) {
	denied := AuthzDecisions.WithLabelValues("post", "delete", "denied")
	before := testutil.ToFloat64(denied)

	RecordAuthzDecision("post", "delete", "denied")
	RecordAuthzDecision("post", "delete", "allowed")

	if d := testutil.ToFloat64(denied) - before; d != 1 {
		t.Errorf("denied delta = %v, want 1", d)
	}
}
