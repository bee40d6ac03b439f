package userstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/tokenauth"
)

// MemoryStore keeps users in a map keyed by username.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]tokenauth.User
}

func NewMemoryStore(users ...tokenauth.User) *MemoryStore {
	s := &MemoryStore{users: make(map[string]tokenauth.User, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// Add inserts u. A username already present is rejected.
func (s *MemoryStore) Add(u tokenauth.User) error {
	if u.Username == "" {
		return tokenauth.ErrUsernameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, u.Username)
	}
	s.users[u.Username] = u
	return nil
}

// Remove deletes username. Removing an unknown user is a no-op.
func (s *MemoryStore) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (tokenauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return tokenauth.User{}, fmt.Errorf("%w: %s", tokenauth.ErrUserNotFound, username)
	}
	return u, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
