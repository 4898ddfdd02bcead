// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/models"
)

// Seed is the document loaded by LoadSeed. Accounts and categories are owned
// by other services; a seed file is how they reach a standalone instance.
type Seed struct {
	Categories []SeedCategory `json:"categories"`
	Users      []SeedUser     `json:"users"`
}

// SeedCategory is one category in a seed file.
type SeedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SeedUser is one user in a seed file. Follows lists the users this user
// follows; LoadSeed writes both directions.
type SeedUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DeviceToken string   `json:"device_token"`
	Role        string   `json:"role"`
	Interests   []string `json:"interests"`
	Follows     []string `json:"follows"`
}

// SeedStore is what LoadSeed writes through.
type SeedStore interface {
	UserStore
	CategoryStore
	SetStore
}

// LoadSeed reads a JSON seed file and upserts its categories and users, then
// records follow relationships through the set primitives. Existing users
// keep their engagement sets.
func LoadSeed(ctx context.Context, s SeedStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return ApplySeed(ctx, s, &seed)
}

// ApplySeed writes seed into s.
func ApplySeed(ctx context.Context, s SeedStore, seed *Seed) error {
	for i := range seed.Categories {
		c := seed.Categories[i]
		if err := s.PutCategory(ctx, &models.Category{ID: c.ID, Name: c.Name}); err != nil {
			return fmt.Errorf("seed category %q: %w", c.ID, err)
		}
	}

	for _, su := range seed.Users {
		u, err := s.GetUser(ctx, su.ID)
		switch {
		case models.IsKind(err, models.KindNotFound):
			u = newUserFromSeed(su)
		case err != nil:
			return fmt.Errorf("seed user %q: %w", su.ID, err)
		default:
			u.Name = su.Name
			u.DeviceToken = su.DeviceToken
			u.Role = su.Role
		}
		for _, c := range su.Interests {
			u.InterestedCategories.Add(c)
		}
		if err := s.PutUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %q: %w", su.ID, err)
		}
	}

	for _, su := range seed.Users {
		for _, target := range su.Follows {
			if target == su.ID {
				continue
			}
			if err := addIfAbsent(ctx, s, models.SetRef{OwnerID: su.ID, Set: models.SetUserFollowing}, target); err != nil {
				return fmt.Errorf("seed follow %s->%s: %w", su.ID, target, err)
			}
			if err := addIfAbsent(ctx, s, models.SetRef{OwnerID: target, Set: models.SetUserFollowers}, su.ID); err != nil {
				return fmt.Errorf("seed follower %s<-%s: %w", target, su.ID, err)
			}
		}
	}
	return nil
}

func addIfAbsent(ctx context.Context, s SetStore, ref models.SetRef, member string) error {
	_, err := s.AddUnique(ctx, ref, member)
	if models.IsKind(err, models.KindConflict) {
		return nil
	}
	return err
}

func newUserFromSeed(su SeedUser) *models.User {
	u := &models.User{
		ID:          su.ID,
		Name:        su.Name,
		DeviceToken: su.DeviceToken,
		Role:        su.Role,
		CreatedAt:   time.Now().UTC(),
	}
	u.Normalize()
	return u
}
