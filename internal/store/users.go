package store

import (
	"strings"
	"sync"
	"time"
)

// User is the gateway's local record of a provider identity. It mirrors what
// the provider knows; the gateway never stores credentials.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Username  string         `json:"username"`
	Traits    map[string]any `json:"traits,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// UserStore keeps user records in process memory. Safe for concurrent use.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewUserStore builds an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]User)}
}

// Save inserts or replaces a user record keyed by id.
func (s *UserStore) Save(user User) User {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return user
}

// FindByID looks a user up by id.
func (s *UserStore) FindByID(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// FindByEmail looks a user up by email, case-insensitively.
func (s *UserStore) FindByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return User{}, false
}

// FindByUsername looks a user up by username.
func (s *UserStore) FindByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, true
		}
	}
	return User{}, false
}

// Count returns the number of stored users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
