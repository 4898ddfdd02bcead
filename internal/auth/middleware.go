// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/murmur/internal/logging"
)

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (*Subject, bool) {
	s, ok := ctx.Value(subjectContextKey).(*Subject)
	return s, ok && s != nil
}

// UserIDFromContext returns the authenticated user ID or "".
func UserIDFromContext(ctx context.Context) string {
	if s, ok := SubjectFromContext(ctx); ok {
		return s.UserID
	}
	return ""
}

// ContextWithSubject stores s in ctx, along with the user ID for logging.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	ctx = context.WithValue(ctx, subjectContextKey, s)
	return logging.ContextWithUserID(ctx, s.UserID)
}

// UnauthorizedFunc writes the response for a failed authentication.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware attaches the caller identity to the request context.
type Middleware struct {
	authenticator Authenticator
	unauthorized  UnauthorizedFunc
}

// NewMiddleware creates the middleware. A nil unauthorized writes a plain
// 401.
func NewMiddleware(a Authenticator, unauthorized UnauthorizedFunc) *Middleware {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{authenticator: a, unauthorized: unauthorized}
}

// RequireAuth rejects requests without a valid identity.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticator.Authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrNoCredentials) {
				logging.Ctx(r.Context()).Warn().Err(err).Str("method", m.authenticator.Name()).Msg("Authentication failed")
			}
			m.unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

// OptionalAuth attaches an identity when one is present and valid, and
// otherwise serves the request anonymously. Invalid credentials are still
// rejected.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticator.Authenticate(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		case errors.Is(err, ErrNoCredentials):
			next.ServeHTTP(w, r)
		default:
			m.unauthorized(w, r, err)
		}
	})
}
