package auth

import (
	"context"
	"errors"
	"testing"
)

func seedMemStore(t *testing.T, store *MemStore, users ...*User) {
	t.Helper()
	for _, u := range users {
		if err := store.Create(context.Background(), u); err != nil {
			t.Fatalf("Create(%s): %v", u.Username, err)
		}
	}
}

func TestMemStoreConflict(t *testing.T) {
	store := NewMemStore()
	seedMemStore(t, store, &User{Username: "alice", Email: "alice@example.com"})

	err := store.Create(context.Background(), &User{Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username: expected ErrConflict, got %v", err)
	}
	err = store.Create(context.Background(), &User{Username: "other", Email: "alice@example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}
}

func TestMemStoreCopiesOnRead(t *testing.T) {
	store := NewMemStore()
	seedMemStore(t, store, &User{Username: "alice", Email: "alice@example.com", Role: RoleEditor})

	u, err := store.ByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ByUsername: %v", err)
	}
	u.Role = RoleAdmin

	again, err := store.ByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ByUsername: %v", err)
	}
	if again.Role != RoleEditor {
		t.Fatal("mutating a returned user must not touch the store")
	}
}

func TestMemStoreListSearch(t *testing.T) {
	store := NewMemStore()
	seedMemStore(t, store,
		&User{Username: "alice", Email: "alice@example.com", Role: RoleEditor, IsActive: true},
		&User{Username: "bob", Email: "bob@example.com", Role: RoleEditor, IsActive: true},
		&User{Username: "carol", Email: "alice-fan@example.com", Role: RoleAdmin, IsActive: false},
	)

	users, total, err := store.List(context.Background(), ListFilter{Search: "ALICE"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Case-insensitive match on username or email.
	if total != 2 || len(users) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", total, len(users))
	}

	inactive := false
	users, total, err = store.List(context.Background(), ListFilter{IsActive: &inactive})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || users[0].Username != "carol" {
		t.Fatalf("expected carol only, got total=%d", total)
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-1, -5, 1, 10},
		{3, 25, 3, 25},
		{1, 500, 1, 10},
	}
	for _, tc := range cases {
		page, limit := normalizePage(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Fatalf("normalizePage(%d, %d) = (%d, %d), want (%d, %d)",
				tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}
