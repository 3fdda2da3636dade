package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const queryCachePrefix = "savings:query:"

// QueryCache caches serialized query results (portfolio rollups and history
// projections) in Redis. Every derived view is recomputed from the ledger on
// a miss, so the cache is purely an optimization: errors degrade to a
// recompute, never to wrong data. All entries are invalidated whenever a
// snapshot is appended.
type QueryCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewQueryCache creates a new query cache
func NewQueryCache(cache *RedisCache, ttl time.Duration) *QueryCache {
	return &QueryCache{cache: cache, ttl: ttl}
}

// Key builds a cache key from the query name and its parameters.
func (qc *QueryCache) Key(query string, params ...interface{}) string {
	key := queryCachePrefix + query
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Get loads a cached result into dest. Returns false on a miss; a transport
// error is also reported as a miss so callers fall through to the ledger.
func (qc *QueryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := qc.cache.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

// Set stores a result under key with the configured TTL
func (qc *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return qc.cache.Set(ctx, key, data, qc.ttl)
}

// Invalidate drops every cached query result. Called after each ledger
// append so stale rollups are never served past an ingest.
func (qc *QueryCache) Invalidate(ctx context.Context) error {
	return qc.cache.DeleteByPattern(ctx, queryCachePrefix+"*")
}
