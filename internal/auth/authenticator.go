// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package auth resolves the caller's user ID from a request.
//
// Account management lives in another service. This package only verifies
// the bearer token that service issues (mode "jwt"), or, in local
// development, trusts an X-User-ID header (mode "none").
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/murmur/internal/config"
)

// Auth modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// UserIDHeader carries the caller identity in mode "none".
const UserIDHeader = "X-User-ID"

var (
	// ErrNoCredentials means the request carried no identity.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials means the identity could not be verified.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials means the token has expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Subject is an authenticated caller.
type Subject struct {
	UserID string
	Name   string
	Method string
}

// Authenticator extracts a Subject from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Subject, error)
	Name() string
}

// NewAuthenticator builds the authenticator for cfg.AuthMode.
func NewAuthenticator(cfg *config.SecurityConfig) (Authenticator, error) {
	switch cfg.AuthMode {
	case ModeJWT, "":
		m, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return NewJWTAuthenticator(m), nil
	case ModeNone:
		return HeaderAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("invalid auth mode: %s", cfg.AuthMode)
	}
}

// JWTAuthenticator verifies bearer tokens, falling back to a "token" cookie.
type JWTAuthenticator struct {
	manager     *JWTManager
	tokenCookie string
}

// NewJWTAuthenticator creates a JWT authenticator.
func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{manager: manager, tokenCookie: "token"}
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (*Subject, error) {
	tokenStr := a.extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.manager.ValidateToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}
	return &Subject{UserID: claims.UserID(), Name: claims.Name, Method: ModeJWT}, nil
}

// Name implements Authenticator.
func (a *JWTAuthenticator) Name() string { return ModeJWT }

func (a *JWTAuthenticator) extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := r.Cookie(a.tokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// HeaderAuthenticator trusts the X-User-ID header. Development only.
type HeaderAuthenticator struct{}

// Authenticate implements Authenticator.
func (HeaderAuthenticator) Authenticate(r *http.Request) (*Subject, error) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return nil, ErrNoCredentials
	}
	if len(id) > 64 {
		return nil, ErrInvalidCredentials
	}
	return &Subject{UserID: id, Method: ModeNone}, nil
}

// Name implements Authenticator.
func (HeaderAuthenticator) Name() string { return ModeNone }
