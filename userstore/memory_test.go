package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/tokenauth"
)

func TestMemoryStoreFind(t *testing.T) {
	s := NewMemoryStore(tokenauth.User{ID: "1", Username: "alice", PasswordHash: "h"})

	u, err := s.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.ID != "1" || u.PasswordHash != "h" {
		t.Fatalf("unexpected user %+v", u)
	}

	_, err = s.FindByUsername(context.Background(), "bob")
	if !errors.Is(err, tokenauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryStoreAddRemove(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Add(tokenauth.User{ID: "1", Username: "alice"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(tokenauth.User{ID: "2", Username: "alice"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if err := s.Add(tokenauth.User{ID: "3"}); err == nil {
		t.Fatal("expected empty username to be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", s.Len())
	}

	s.Remove("alice")
	s.Remove("alice")
	if _, err := s.FindByUsername(context.Background(), "alice"); !errors.Is(err, tokenauth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after remove, got %v", err)
	}
}
