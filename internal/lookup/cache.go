package lookup

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// loadOrBuild returns the value cached under key, building and publishing it
// on first use. Concurrent first callers for the same key share one build;
// LoadOrStore publishes it so every caller converges on the same value.
// Different keys never contend.
func loadOrBuild[V any](cache *sync.Map, flight *singleflight.Group, key string, build func() V) V {
	if v, ok := cache.Load(key); ok {
		return v.(V)
	}
	v, _, _ := flight.Do(key, func() (interface{}, error) {
		if v, ok := cache.Load(key); ok {
			return v, nil
		}
		actual, _ := cache.LoadOrStore(key, build())
		return actual, nil
	})
	return v.(V)
}
