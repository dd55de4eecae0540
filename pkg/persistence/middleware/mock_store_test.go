package middleware_test

import (
	"context"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the exact maps it is given so tests can inspect them.
type MockStore struct {
	data map[int64]map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[int64]map[string]string),
	}
}

func (s *MockStore) Save(ctx context.Context, userID int64, vars map[string]string) error {
	s.data[userID] = vars
	return nil
}

func (s *MockStore) Load(ctx context.Context, userID int64) (map[string]string, error) {
	vars, ok := s.data[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return vars, nil
}

func (s *MockStore) Delete(ctx context.Context, userID int64) error {
	delete(s.data, userID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]int64, error) {
	keys := make([]int64, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.VariableStore = (*MockStore)(nil)
