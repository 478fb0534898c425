// Package cache stores Data Dragon CDN responses in Redis.
//
// Champion metadata only changes with a new game patch, so repeated
// `champions` runs are served from the cache and revalidated with
// conditional requests once an entry goes stale:
//
// - Freshness from Cache-Control max-age, then Expires, then a fallback TTL
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Stale entries kept for revalidation instead of being dropped
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{Path: "/api/versions.json"}
//
//	entry, err := manager.Lookup(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from the CDN and Set
//	case entry.IsExpired():
//		// revalidate with cache.ConditionalHeaders(entry)
//	default:
//		// serve entry.Data
//	}
//
// # Metrics
//
//   - ddragon_cache_hits_total{state="fresh|stale"}
//   - ddragon_cache_misses_total
//   - ddragon_cache_size_bytes
//   - ddragon_304_responses_total
//   - ddragon_cache_errors_total{operation}
package cache
