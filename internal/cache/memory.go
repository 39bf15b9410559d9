package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// Memory is an in-process Store backed by go-cache.
type Memory struct {
	store *gocache.Cache
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-process store.
// defaultTTL is the default expiration time for cache entries.
// cleanupInterval is how often expired items are removed from memory.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = constants.CacheExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = constants.CacheCleanupInterval
	}
	return &Memory{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, found := m.store.Get(key)
	if !found {
		return false, nil
	}
	data, ok := raw.([]byte)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return false
	}
	switch {
	case ttl == NoExpiration:
		ttl = gocache.NoExpiration
	case ttl <= 0:
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, data, ttl)
	return true
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Ping implements Store. The in-process store is always reachable.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Clear removes all items from the cache.
func (m *Memory) Clear() {
	m.store.Flush()
}

// ItemCount returns the number of items in the cache, expired ones included
// until the next cleanup.
func (m *Memory) ItemCount() int {
	return m.store.ItemCount()
}
