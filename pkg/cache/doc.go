// Package cache provides the TTL cache for derived authorization state.
//
// Cached values (a principal's expanded roles and effective permissions) are
// derived data: they may be dropped or recomputed at any time without loss of
// correctness, only of latency. The package enforces that property by
// degrading on every backend failure: a failed read is a miss, a failed
// write or invalidation is logged as a warning and otherwise ignored. A cache
// outage must never change an authorization decision.
//
// The backend is chosen once at construction and never branched on per call:
//
//	backend := cache.NewRedisBackend(redisClient)   // or cache.NewMemoryBackend()
//	pc := cache.NewPrincipalCache(backend, cache.Config{TTL: 5 * time.Minute}, logger)
//
//	if roles, ok := pc.GetRoles(ctx, principalID); ok {
//	    // fast path
//	}
//
// Keys follow the "roles:{principalID}" / "permissions:{principalID}" scheme;
// InvalidatePrincipal deletes both and is called synchronously after every
// role-assignment mutation is durably persisted.
package cache
