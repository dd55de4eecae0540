package ports_test

import (
	"context"
	"maps"
	"testing"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/ports"
)

// MockStore is a map-backed VariableStore used to exercise the contract suite.
type MockStore struct {
	data map[int64]map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[int64]map[string]string),
	}
}

func (m *MockStore) Save(ctx context.Context, userID int64, vars map[string]string) error {
	m.data[userID] = maps.Clone(vars)
	return nil
}

func (m *MockStore) Load(ctx context.Context, userID int64) (map[string]string, error) {
	vars, ok := m.data[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return maps.Clone(vars), nil
}

func (m *MockStore) Delete(ctx context.Context, userID int64) error {
	delete(m.data, userID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]int64, error) {
	out := make([]int64, 0, len(m.data))
	for id := range m.data {
		out = append(out, id)
	}
	return out, nil
}

func TestVariableStore_Contract(t *testing.T) {
	ports.RunVariableStoreContract(t, NewMockStore())
}
