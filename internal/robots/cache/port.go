package cache

// Cache defines the port interface for robots.txt result caching.
// This interface follows the port-adapter pattern, allowing different
// cache implementations to be swapped without changing the fetcher logic.
//
// Entries live only for the duration of one crawl run (no persistence).
type Cache[V any] interface {
	// Get retrieves a value from the cache by key.
	// Returns the cached value and true if found, or the zero value and false if not found.
	Get(key string) (V, bool)

	// Put stores a key-value pair in the cache.
	// If the key already exists, the value is overwritten.
	Put(key string, value V)
}
