// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestIDSet(t *testing.T) {
	t.Parallel()

	s := NewIDSet("b", "a", "b", "")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Add("c") || s.Add("c") {
		t.Error("Add must report change only once")
	}
	if !s.Remove("a") || s.Remove("a") {
		t.Error("Remove must report change only once")
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Sorted() = %v", got)
	}
}

func TestIDSetJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewIDSet("z", "a", "m"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["a","m","z"]` {
		t.Errorf("Marshal = %s", data)
	}

	var s IDSet
	if err := json.Unmarshal([]byte(`["x","x","y"]`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || !s.Has("x") || !s.Has("y") {
		t.Errorf("Unmarshal collapsed to %v", s.Sorted())
	}
}

func TestPostQueryOrdering(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := &Post{ID: "a", Views: 5, CreatedAt: now}
	b := &Post{ID: "b", Views: 5, CreatedAt: now}
	c := &Post{ID: "c", Views: 9, CreatedAt: now.Add(-time.Hour)}

	viewed := PostQuery{Order: OrderMostViewed}
	if !viewed.Less(c, a) || !viewed.Less(a, b) || viewed.Less(b, a) {
		t.Error("most-viewed order must rank by views then id")
	}

	newest := PostQuery{Order: OrderNewest}
	if !newest.Less(a, c) || !newest.Less(a, b) {
		t.Error("newest order must rank by created_at then id")
	}
}

func TestUserSetAddressing(t *testing.T) {
	t.Parallel()

	u := &User{ID: "u1"}
	set, ok := UserSet(u, SetUserFavorites)
	if !ok {
		t.Fatal("favorites set not addressable")
	}
	set.Add("p1")
	if !u.Favorites.Has("p1") {
		t.Error("mutation through UserSet did not reach the user")
	}
	if _, ok := UserSet(u, SetPostLikes); ok {
		t.Error("post set must not be addressable on a user")
	}
	if SetPostLikes.Entity() != "post" || SetUserFavorites.Entity() != "user" {
		t.Error("Entity() mismatch")
	}
}
