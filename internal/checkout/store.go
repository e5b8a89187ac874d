package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore mirrors the last loaded snapshot outside the process.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.BasketSnapshot) error
	Load(ctx context.Context) (model.BasketSnapshot, bool, error)
}

type MemorySnapshotStore struct {
	mu   sync.Mutex
	snap *model.BasketSnapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snap model.BasketSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := snap.Clone()
	s.snap = &c
	return nil
}

func (s *MemorySnapshotStore) Load(_ context.Context) (model.BasketSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return model.BasketSnapshot{}, false, nil
	}
	return s.snap.Clone(), true, nil
}

// RedisSnapshotStore keeps the snapshot as JSON under a single key.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, key: key, ttl: ttl}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap model.BasketSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context) (model.BasketSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BasketSnapshot{}, false, nil
	}
	if err != nil {
		return model.BasketSnapshot{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap model.BasketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.BasketSnapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}
