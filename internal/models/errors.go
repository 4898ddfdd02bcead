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
)

// ErrorKind classifies a failure so callers can render it without inspecting
// the underlying cause. Each kind has a stable machine-readable code.
type ErrorKind int

const (
	// KindInternal covers storage failures and anything unclassified.
	KindInternal ErrorKind = iota
	// KindNotFound means a referenced post, user, or category is absent.
	KindNotFound
	// KindConflict means a duplicate add where reject-on-duplicate applies.
	KindConflict
	// KindValidation means malformed or missing required input.
	KindValidation
	// KindUnavailable means a collaborator or the store cannot serve the call.
	KindUnavailable
	// KindTimeout means the request deadline was exceeded.
	KindTimeout
	// KindForbidden means the caller may not act on the entity.
	KindForbidden
)

// Code returns the stable classification code for the kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindTimeout:
		return "TIMEOUT"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Sentinel errors for errors.Is checks against a kind.
var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrInternal    = &Error{Kind: KindInternal}
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrTimeout     = &Error{Kind: KindTimeout}
	ErrForbidden   = &Error{Kind: KindForbidden}
)

// Error is the tagged error carried across the engagement and discovery
// boundaries. Op names the failed operation (e.g. "engagement.ToggleLike"),
// Entity and ID name the object involved.
type Error struct {
	Kind    ErrorKind
	Op      string
	Entity  string
	ID      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason())
	if e.ID != "" {
		fmt.Fprintf(&b, " (%s=%s)", e.Entity, e.ID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets
// errors.Is(err, models.ErrNotFound) match any not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.ID == ""
}

// Code returns the stable classification code.
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Reason returns the human-readable part of the error without the op prefix
// or wrapped cause. It is safe to show to API clients.
func (e *Error) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Entity != "" {
		switch e.Kind {
		case KindNotFound:
			return e.Entity + " not found"
		case KindConflict:
			return e.Entity + " already exists"
		}
	}
	switch e.Kind {
	case KindTimeout:
		return "request timed out"
	case KindUnavailable:
		return "service unavailable"
	case KindValidation:
		return "invalid request"
	case KindForbidden:
		return "permission denied"
	case KindInternal:
		return "internal error"
	}
	return e.Kind.String()
}

// NotFound builds a not-found error for entity/id.
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Entity: entity, ID: id}
}

// Conflict builds a conflict error with a reason.
func Conflict(op, entity, id, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Entity: entity, ID: id, Message: message}
}

// Forbidden builds a permission error for entity/id.
func Forbidden(op, entity, id, message string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Entity: entity, ID: id, Message: message}
}

// Invalid builds a validation error with a reason.
func Invalid(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Wrap classifies err and tags it with op. Errors that are already tagged
// keep their kind and gain no extra layer. Context errors become Timeout or
// Unavailable, anything else Internal. Wrap(op, nil) returns nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// KindOf returns the classification of err. Untagged errors are Internal
// unless they stem from a context deadline or cancellation.
func KindOf(err error) ErrorKind {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
