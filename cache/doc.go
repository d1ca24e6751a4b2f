// Package cache provides the content-addressed pipeline cache.
//
// A cache key fingerprints (capability, configuration, input identity);
// GetOrCompute guarantees at-most-one concurrent computation per key and
// hands every concurrent caller the same shared result:
//
//	key, _ := cache.KeyFor("detect", opts, input)
//	out, err := c.GetOrCompute(ctx, key, func() (media.Payload, error) {
//	    return invoker.Invoke(ctx, req)
//	})
//
// Completed entries are evicted least-recently-used once the tracked
// size estimate exceeds the configured budget. Failures are never
// cached; in-flight computations are not entries yet and therefore can
// never be evicted.
package cache
