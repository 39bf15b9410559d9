// Package cache provides the key-value store used to memoise sync responses,
// ABN lookups and uploaded postcode lists.
//
// Values are stored as JSON so payloads written by one backend can be read by
// another. Two backends are provided: an in-process store on
// patrickmn/go-cache and a shared store on Redis.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is a JSON value cache. Implementations are safe for concurrent use
// and each operation is atomic per key.
type Store interface {
	// Get decodes the value stored under key into dest. It reports false
	// when the key is missing or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl. A zero ttl uses the store default
	// and NoExpiration keeps the value until it is overwritten or deleted.
	// It reports whether the value was stored.
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// NoExpiration stores a value without a lifetime.
const NoExpiration time.Duration = -1

// PostcodesKey is the key of a state's uploaded postcode list.
func PostcodesKey(state string) string {
	return "postcodes:" + strings.ToUpper(state)
}

// SyncAllKey is the key of a bulk sync response.
func SyncAllKey(state string) string {
	return "sync_all_" + strings.ToUpper(state)
}

// SyncKey is the key of a single-source sync response. It narrows with each
// non-empty argument: sync_{source}, sync_{source}_{state},
// sync_{source}_{state}_{postcode}. The state is used as given.
func SyncKey(source, state, postcode string) string {
	switch {
	case state != "" && postcode != "":
		return fmt.Sprintf("sync_%s_%s_%s", source, state, postcode)
	case state != "":
		return fmt.Sprintf("sync_%s_%s", source, state)
	default:
		return "sync_" + source
	}
}

// ABNLookupKey is the key of a single ABN lookup response.
func ABNLookupKey(identifier string) string {
	return "abn_lookup_" + identifier
}
