// Package user stores reviewer accounts in memory.
package user

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"abportal/internal/auth/models"
	id "abportal/pkg/domain"
	"abportal/pkg/platform/sentinel"
)

// InMemoryUserStore keeps reviewer accounts keyed by ID with a case-insensitive email index.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// Save inserts or replaces a user. Replacing a user with a new email frees the old one.
func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is nil: %w", sentinel.ErrInvalidState)
	}
	key := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byEmail[key]; ok && owner != user.ID {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	if prev, ok := s.users[user.ID]; ok {
		delete(s.byEmail, normalizeEmail(prev.Email))
	}
	s.users[user.ID] = user
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[normalizeEmail(email)]; ok {
		return s.users[userID], nil
	}
	return nil, sentinel.ErrNotFound
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
