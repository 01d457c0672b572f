// Package platform covers the device bring-up that has to finish before the
// supervisor runs: persistent storage and network link readiness.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the small persistent key/value area the orchestrator keeps boot
// bookkeeping in.
type Store interface {
	Name() string
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// Boot bookkeeping keys.
const (
	KeyBootCount        = "boot_count"
	KeyLastBootDegraded = "last_boot_degraded"
	KeyLastBootID       = "last_boot_id"
)

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Name() string                   { return "memory" }
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                   { return nil }

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(0)
	if v, ok := m.data[key]; ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %s: value is not an integer", key)
		}
		n = parsed
	}
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// RedisStore keeps values under <prefix>:<key>.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "servicemgr:store"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k string) string { return r.prefix + ":" + k }

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, r.key(key)).Result()
}

// Close is a no-op; the client belongs to the redis component.
func (r *RedisStore) Close() error { return nil }

// PrepareStore checks that primary is usable. When it is not, the boot
// continues on an in-memory store and degraded is true.
func PrepareStore(ctx context.Context, primary Store) (store Store, degraded bool, err error) {
	if primary == nil {
		return NewMemoryStore(), false, nil
	}
	if err := primary.Ping(ctx); err != nil {
		return NewMemoryStore(), true, fmt.Errorf("storage %s unavailable: %w", primary.Name(), err)
	}
	return primary, false, nil
}
