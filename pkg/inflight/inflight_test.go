package inflight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardRejectsDuplicateUntilReleased(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, ok, err := g.Acquire(ctx, "u1:POST:/income", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.Acquire(ctx, "u1:POST:/income", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = g.Acquire(ctx, "u2:POST:/income", time.Minute)
	assert.True(t, ok)

	release(ctx)
	_, ok, _ = g.Acquire(ctx, "u1:POST:/income", time.Minute)
	assert.True(t, ok)
}

func TestMemoryGuardExpires(t *testing.T) {
	g := NewMemoryGuard()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	_, ok, _ := g.Acquire(context.Background(), "k", 10*time.Second)
	require.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok, _ = g.Acquire(context.Background(), "k", 10*time.Second)
	assert.True(t, ok)
}

func TestStaleReleaseDoesNotFreeNewHolder(t *testing.T) {
	g := NewMemoryGuard()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, _ := g.Acquire(ctx, "k", time.Second)
	require.True(t, ok)
	now = now.Add(2 * time.Second)
	_, ok, _ = g.Acquire(ctx, "k", time.Minute)
	require.True(t, ok)

	stale(ctx)
	_, ok, _ = g.Acquire(ctx, "k", time.Minute)
	assert.False(t, ok)
}
