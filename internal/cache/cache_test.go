package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	State     string   `json:"state"`
	Postcodes []string `json:"postcodes"`
}

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedis(t)
	stores := map[string]Store{
		"memory": NewMemory(time.Minute, time.Minute),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Ping(ctx))

			var got payload
			found, err := store.Get(ctx, "missing", &got)
			require.NoError(t, err)
			assert.False(t, found)

			want := payload{State: "NSW", Postcodes: []string{"2000", "2001"}}
			assert.True(t, store.Set(ctx, PostcodesKey("nsw"), want, time.Minute))

			found, err = store.Get(ctx, "postcodes:NSW", &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)

			require.NoError(t, store.Delete(ctx, "postcodes:NSW"))
			found, err = store.Get(ctx, "postcodes:NSW", &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStoresRejectUnencodable(t *testing.T) {
	redisStore, _ := newRedis(t)
	for name, store := range map[string]Store{"memory": NewMemory(0, 0), "redis": redisStore} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, store.Set(context.Background(), "bad", make(chan int), time.Minute))
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)
	ctx := context.Background()
	require.True(t, m.Set(ctx, "expiring", "value", 50*time.Millisecond))

	var v string
	found, _ := m.Get(ctx, "expiring", &v)
	assert.True(t, found)

	time.Sleep(100 * time.Millisecond)
	found, _ = m.Get(ctx, "expiring", &v)
	assert.False(t, found)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := SyncKey("abn", "NSW", string(rune('a'+i)))
			m.Set(ctx, key, i, 0)
			var got int
			_, _ = m.Get(ctx, key, &got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.ItemCount())

	m.Clear()
	assert.Equal(t, 0, m.ItemCount())
}

func TestRedisTTL(t *testing.T) {
	store, mr := newRedis(t)
	ctx := context.Background()

	require.True(t, store.Set(ctx, SyncAllKey("vic"), map[string]string{"status": "success"}, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("sync_all_VIC"))

	require.True(t, store.Set(ctx, "default-ttl", 1, 0))
	assert.Equal(t, time.Hour, mr.TTL("default-ttl"))

	require.True(t, store.Set(ctx, "forever", 1, NoExpiration))
	assert.Equal(t, time.Duration(0), mr.TTL("forever"))

	mr.FastForward(2 * time.Hour)
	var got map[string]string
	found, err := store.Get(ctx, "sync_all_VIC", &got)
	require.NoError(t, err)
	assert.False(t, found)

	var n int
	found, err = store.Get(ctx, "forever", &n)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRedisCorruptValue(t *testing.T) {
	store, mr := newRedis(t)
	require.NoError(t, mr.Set("abn_lookup_1", "{not json"))

	var got map[string]any
	found, err := store.Get(context.Background(), ABNLookupKey("1"), &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisUnavailable(t *testing.T) {
	store, mr := newRedis(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, store.Ping(ctx))
	assert.False(t, store.Set(ctx, "k", 1, time.Minute))
	_, err := store.Get(ctx, "k", new(int))
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	store, err := NewRedis(RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"postcodes", PostcodesKey("nsw"), "postcodes:NSW"},
		{"sync all", SyncAllKey("Qld"), "sync_all_QLD"},
		{"source", SyncKey("abn", "", ""), "sync_abn"},
		{"source state", SyncKey("acnc", "NSW", ""), "sync_acnc_NSW"},
		{"source state postcode", SyncKey("nsw", "NSW", "2000"), "sync_nsw_NSW_2000"},
		{"state case kept", SyncKey("acnc", "nsw", "2000"), "sync_acnc_nsw_2000"},
		{"postcode without state", SyncKey("nsw", "", "2000"), "sync_nsw"},
		{"abn lookup", ABNLookupKey("12345678901"), "abn_lookup_12345678901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
