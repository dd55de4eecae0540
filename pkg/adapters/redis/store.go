// Package redis provides Redis-backed implementations of the flowbot ports.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowbot/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "flowbot:vars:"

// Store implements ports.VariableStore using Redis.
// Each user is one JSON value; a sorted set indexes users by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires the variables of a user after d without writes.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithPrefix sets the key prefix (default "flowbot:vars:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at addr.
func New(addr string, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locker returns a locker on the store's server, under the store's prefix.
func (s *Store) Locker() *Locker {
	return NewLocker(s.client, s.prefix)
}

func (s *Store) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save replaces the variables of a user.
func (s *Store) Save(ctx context.Context, userID int64, vars map[string]string) error {
	if vars == nil {
		vars = map[string]string{}
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	score := math.Inf(1)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(userID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: strconv.FormatInt(userID, 10)})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save variables: %w", err)
	}
	return nil
}

// Load retrieves the variables of a user.
func (s *Store) Load(ctx context.Context, userID int64) (map[string]string, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}

	var vars map[string]string
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to decode variables: %w", err)
	}
	return vars, nil
}

// Delete removes the variables of a user.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), strconv.FormatInt(userID, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete variables: %w", err)
	}
	return nil
}

// List returns the users with live variables.
// Expired index entries are removed lazily.
func (s *Store) List(ctx context.Context) ([]int64, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune index: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
		if err != nil {
			continue
		}
		users = append(users, id)
	}
	return users, nil
}
