// Package cache holds short-lived SDK lookups such as exchange capability
// maps.
package cache

import "time"

// Cache is the interface for SDK-side caching.
type Cache interface {
	// Get returns (value, true) if found, (nil, false) otherwise.
	Get(key string) (any, bool)

	// Set stores a value with a TTL. It may be applied asynchronously and
	// may be rejected by admission; callers must tolerate a miss after Set.
	Set(key string, value any, ttl time.Duration) bool

	// Wait blocks until pending Sets are visible to Get.
	Wait()

	Delete(key string)

	Clear()

	Close()
}
