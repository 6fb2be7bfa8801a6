// Package cache holds computed API results for a short while.
// Entries expire lazily: staleness is only checked on read.
package cache

import "time"

// Cache is a key/value store of read results with per-read time-to-live.
type Cache interface {
	// Get returns the value stored under key if it is younger than ttl.
	// A stale entry is evicted and reported as a miss.
	Get(key string, ttl time.Duration) (interface{}, bool)
	// Set stores value under key, replacing any previous value.
	Set(key string, value interface{})
	// Invalidate removes key; removing an absent key is a no-op.
	Invalidate(key string)
}

// Key builds a cache key from a namespace and a discriminator, eg: Key("courses", "all").
func Key(prefix, discriminator string) string {
	return prefix + ":" + discriminator
}
