// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package authz decides whether a caller may change a post. Decisions come
// from a Casbin model in which the caller either owns the object ("author")
// or holds a role granted the action (by default "admin").
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects and actions known to the built-in policy.
const (
	ObjectPost   = "post"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// RoleAdmin may update and delete any post.
const RoleAdmin = "admin"

// roleAuthor is the policy subject matched when the caller owns the object.
// It is never taken from a stored profile.
const roleAuthor = "author"

// Actor is the caller being authorized.
type Actor struct {
	UserID string
	Role   string
}

// Enforcer wraps a Casbin enforcer loaded with the post policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	logger   zerolog.Logger
}

// NewEnforcer loads the embedded model and either the policy file at
// policyPath or, when it is empty, the embedded policy.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEnforcer(policyPath string, logger zerolog.Logger) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if policyPath != "" {
		if _, statErr := os.Stat(policyPath); statErr != nil {
			return nil, fmt.Errorf("authz policy file: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   logger.With().Str("component", "authz").Logger(),
	}, nil
}

// loadEmbeddedPolicy adds the "p" lines of a policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) < 4 {
			continue
		}
		if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// Allowed reports whether actor may perform action on an object owned by
// ownerID.
func (e *Enforcer) Allowed(actor Actor, object, action, ownerID string) (bool, error) {
	if actor.UserID == "" {
		return false, nil
	}
	role := actor.Role
	if role == roleAuthor {
		role = ""
	}
	allowed, err := e.enforcer.Enforce(actor.UserID, role, ownerID, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// Authorize returns nil when the action is allowed, a Forbidden error when it
// is denied, and an Internal error when the policy cannot be evaluated.
func (e *Enforcer) Authorize(actor Actor, object, objectID, action, ownerID string) error {
	const op = "authz.Authorize"
	allowed, err := e.Allowed(actor, object, action, ownerID)
	switch {
	case err != nil:
		metrics.RecordAuthzDecision(object, action, "error")
		e.logger.Error().Err(err).Str("object", object).Str("action", action).Msg("Authorization check failed")
		return &models.Error{Kind: models.KindInternal, Op: op, Err: err}
	case !allowed:
		metrics.RecordAuthzDecision(object, action, "denied")
		e.logger.Debug().
			Str("user_id", actor.UserID).
			Str("object", object).
			Str("object_id", objectID).
			Str("action", action).
			Msg("Authorization denied")
		return models.Forbidden(op, object, objectID, fmt.Sprintf("only the author or an admin may %s this %s", action, object))
	}
	metrics.RecordAuthzDecision(object, action, "allowed")
	return nil
}
