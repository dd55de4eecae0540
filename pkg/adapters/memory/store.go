// Package memory provides in-process implementations of the flowbot ports.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/flowbot/pkg/domain"
)

// Store implements ports.VariableStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[int64]map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[int64]map[string]string),
	}
}

// Save replaces the variables of a user.
func (s *Store) Save(ctx context.Context, userID int64, vars map[string]string) error {
	// Copy to ensure isolation, similar to serialization
	copied := maps.Clone(vars)
	if copied == nil {
		copied = map[string]string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = copied
	return nil
}

// Load retrieves the variables of a user.
func (s *Store) Load(ctx context.Context, userID int64) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vars, ok := s.data[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	// Copy on read so callers can't mutate the store through the map
	return maps.Clone(vars), nil
}

// Delete removes the variables of a user.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

// List returns the users with saved variables.
func (s *Store) List(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]int64, 0, len(s.data))
	for id := range s.data {
		users = append(users, id)
	}
	return users, nil
}
