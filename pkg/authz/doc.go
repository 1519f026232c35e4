// Package authz composes the role catalog, the permission resolver, the
// authorization cache, tenant-access validation, feature-flag resolution and
// the audit trail into the decision API consumed by the request layer.
//
// The service is an explicit value built once at process startup with every
// collaborator injected; there is no global state and no per-call branching
// on backend type.
//
//	catalog, err := rbac.NewCatalog(ctx, roleSource)
//	if err != nil {
//	    log.Fatal(err) // invalid role configuration is fatal
//	}
//
//	pc := cache.NewPrincipalCache(cache.NewRedisBackend(redisClient), cacheCfg, logger)
//	svc := authz.New(store, catalog, pc, auditSink, logger, authz.Config{})
//
//	ok, err := svc.HasPermissionInTenant(ctx, principalID, "policies.approve", tenantID)
//	if err != nil {
//	    // infrastructure failure: treat as no access (fail-closed)
//	}
//
// # Decision semantics
//
// Decision methods return (false, nil) for a plain denial and (false, err)
// only for infrastructure failures: persistence unreachable, context
// cancelled or deadline exceeded. They never grant on error. Cache backend
// failures are invisible here: the cache degrades to direct persistence
// lookups internally.
//
// # Mutation semantics
//
// Administrative mutations follow a fixed sequence: persist, synchronously
// invalidate the principal's cache entries, emit an audit entry, return.
// Once the mutation is persisted it is reported successful even if cache
// invalidation or the audit write fails; those failures surface as a warning
// log and as Result.AuditErr respectively. A caller that receives success
// and then issues a read on the same principal observes the new state.
package authz
