// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"tagged not found", NotFound("op", "post", "p1"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("outer: %w", Conflict("op", "post", "p1", "dup")), KindConflict},
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindUnavailable},
		{"plain", errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("handler: %w", NotFound("engagement.ToggleLike", "post", "p1"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("not-found error must not match ErrConflict")
	}
	if !IsKind(err, KindNotFound) {
		t.Error("IsKind(err, KindNotFound) = false")
	}
	if IsKind(nil, KindInternal) {
		t.Error("IsKind(nil) must be false")
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	e := NotFound("engagement.ToggleLike", "post", "p1")
	msg := e.Error()
	for _, want := range []string{"engagement.ToggleLike", "post not found", "p1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if e.Code() != "NOT_FOUND" {
		t.Errorf("Code() = %q", e.Code())
	}
	if e.Reason() != "post not found" {
		t.Errorf("Reason() = %q", e.Reason())
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap("op", nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}

	tagged := Invalid("op", "post id is required")
	if got := Wrap("outer", tagged); got != tagged {
		t.Errorf("Wrap re-tagged an already tagged error: %v", got)
	}

	cause := errors.New("io")
	got := Wrap("store.Get", cause)
	if KindOf(got) != KindInternal {
		t.Errorf("kind = %v, want internal", KindOf(got))
	}
	if !errors.Is(got, cause) {
		t.Error("wrapped error lost its cause")
	}
}

func TestErrorKindCodesAreStable(t *testing.T) {
	t.Parallel()

	want := map[ErrorKind]string{
		KindInternal:    "INTERNAL_ERROR",
		KindNotFound:    "NOT_FOUND",
		KindConflict:    "CONFLICT",
		KindValidation:  "VALIDATION_ERROR",
		KindUnavailable: "UNAVAILABLE",
		KindTimeout:     "TIMEOUT",
		KindForbidden:   "FORBIDDEN",
	}
	for k, code := range want {
		if k.Code() != code {
			t.Errorf("%v.Code() = %q, want %q", k, k.Code(), code)
		}
	}
}
