// Package inflight rejects a second identical mutation while the first is
// still outstanding. Keys are chosen by the caller (user + action + target).
package inflight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Release frees a previously acquired key.
type Release func(ctx context.Context)

// Guard hands out per-key request tokens.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard stores tokens with SETNX so replicas share the guard.
type RedisGuard struct {
	client *redis.Client
	prefix string
}

// NewRedisGuard builds a guard over the given client.
func NewRedisGuard(client *redis.Client, prefix string) *RedisGuard {
	if prefix == "" {
		prefix = "inflight:"
	}
	return &RedisGuard{client: client, prefix: prefix}
}

// Acquire reserves key until released or ttl elapses.
func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	token := uuid.NewString()
	fullKey := g.prefix + key
	ok, err := g.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, g.client, []string{fullKey}, token).Err()
	}, true, nil
}

// MemoryGuard is the single-process fallback.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// NewMemoryGuard builds an in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{entries: make(map[string]memoryEntry), now: time.Now}
}

// Acquire reserves key until released or ttl elapses.
func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (Release, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if entry, exists := g.entries[key]; exists && now.Before(entry.expiresAt) {
		return nil, false, nil
	}
	token := uuid.NewString()
	g.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if entry, exists := g.entries[key]; exists && entry.token == token {
			delete(g.entries, key)
		}
	}, true, nil
}
