package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to user variables.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.VariableStore

	mu    sync.Mutex
	locks map[int64]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.VariableStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[int64]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release after unlocking.
func (m *Manager) acquire(userID int64) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// Load returns the variables of a user, or an empty map for a new user.
// Callers already inside WithLock use LoadUnlocked.
func (m *Manager) Load(ctx context.Context, userID int64) (map[string]string, error) {
	var vars map[string]string
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		vars, err = m.LoadUnlocked(ctx, userID)
		return err
	})
	return vars, err
}

// LoadUnlocked is Load without taking the user lock.
func (m *Manager) LoadUnlocked(ctx context.Context, userID int64) (map[string]string, error) {
	vars, err := m.store.Load(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load variables of user %d: %w", userID, err)
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return vars, nil
}

// Save persists the variables of a user.
func (m *Manager) Save(ctx context.Context, userID int64, vars map[string]string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.store.Save(ctx, userID, vars)
	})
}

// SaveUnlocked is Save without taking the user lock.
func (m *Manager) SaveUnlocked(ctx context.Context, userID int64, vars map[string]string) error {
	if err := m.store.Save(ctx, userID, vars); err != nil {
		return fmt.Errorf("failed to save variables of user %d: %w", userID, err)
	}
	return nil
}

// Delete removes every variable of a user.
func (m *Manager) Delete(ctx context.Context, userID int64) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.store.Delete(ctx, userID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]int64, error) {
	return m.store.List(ctx)
}

// Store returns the underlying variable store.
func (m *Manager) Store() ports.VariableStore {
	return m.store
}

// WithLock executes fn while holding the lock of the user.
func (m *Manager) WithLock(ctx context.Context, userID int64, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		key := strconv.FormatInt(userID, 10)
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
