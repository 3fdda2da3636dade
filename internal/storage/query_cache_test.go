package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestQueryCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewQueryCache(NewRedisCacheFromClient(client), time.Minute), mr
}

func TestQueryCache_SetGet(t *testing.T) {
	qc, _ := setupTestQueryCache(t)
	ctx := context.Background()

	type payload struct {
		Total float64 `json:"total"`
	}

	key := qc.Key("portfolio", "Pacific/Auckland")
	require.NoError(t, qc.Set(ctx, key, payload{Total: 150}))

	var got payload
	found, err := qc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 150.0, got.Total)
}

func TestQueryCache_Miss(t *testing.T) {
	qc, _ := setupTestQueryCache(t)

	var got map[string]interface{}
	found, err := qc.Get(context.Background(), qc.Key("history", 30), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryCache_Invalidate(t *testing.T) {
	qc, _ := setupTestQueryCache(t)
	ctx := context.Background()

	require.NoError(t, qc.Set(ctx, qc.Key("portfolio"), map[string]int{"a": 1}))
	require.NoError(t, qc.Set(ctx, qc.Key("history", 7), map[string]int{"b": 2}))

	require.NoError(t, qc.Invalidate(ctx))

	var got map[string]int
	found, err := qc.Get(ctx, qc.Key("portfolio"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = qc.Get(ctx, qc.Key("history", 7), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	qc, mr := setupTestQueryCache(t)
	ctx := context.Background()

	key := qc.Key("portfolio")
	require.NoError(t, qc.Set(ctx, key, map[string]int{"a": 1}))

	// miniredis clock is manual; advance past the TTL
	mr.FastForward(2 * time.Minute)

	var got map[string]int
	found, err := qc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryCache_KeyIncludesParams(t *testing.T) {
	qc, _ := setupTestQueryCache(t)

	assert.NotEqual(t, qc.Key("history", 7), qc.Key("history", 30))
	assert.Equal(t, "savings:query:history:7", qc.Key("history", 7))
}
