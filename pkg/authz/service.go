package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brokerhq/authzkit/pkg/audit"
	"github.com/brokerhq/authzkit/pkg/cache"
	"github.com/brokerhq/authzkit/pkg/feature"
	"github.com/brokerhq/authzkit/pkg/permissions"
	"github.com/brokerhq/authzkit/pkg/rbac"
)

// Audit actions emitted by the service.
const (
	ActionRoleAssign = "rbac.role.assign"
	ActionRoleRemove = "rbac.role.remove"
	ActionFlagSet    = "feature.override.set"
)

// Result reports the outcome of a committed administrative mutation.
type Result struct {
	// AuditErr is set when the audit sink rejected the entry. The mutation
	// itself has already been persisted and must not be retried; the caller
	// should alert or re-emit the audit record out-of-band.
	AuditErr error
}

// Service is the authorization facade consumed by the request layer. It is
// constructed once at process startup with its collaborators injected and
// holds no hidden mutable state; every method is safe for concurrent use.
//
// Decision methods are fail-closed: denial without infrastructure trouble is
// a plain (false, nil), and any non-nil error means the decision could not
// be made and must be treated as "no access".
type Service struct {
	store        Store
	catalog      *rbac.Catalog
	resolver     *rbac.Resolver
	cache        *cache.PrincipalCache
	flags        *feature.Resolver
	sink         audit.Sink
	log          *slog.Logger
	storeTimeout time.Duration
	bypass       map[string]struct{}
}

// New constructs the Service. A nil logger falls back to slog.Default; a nil
// sink falls back to audit.NoopSink.
func New(store Store, catalog *rbac.Catalog, principalCache *cache.PrincipalCache, sink audit.Sink, log *slog.Logger, cfg Config) *Service {
	if log == nil {
		log = slog.Default()
	}
	if sink == nil {
		sink = audit.NoopSink{}
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	bypass := make(map[string]struct{}, len(cfg.BypassRoles))
	for _, name := range cfg.BypassRoles {
		bypass[name] = struct{}{}
	}

	s := &Service{
		store:        store,
		catalog:      catalog,
		resolver:     rbac.NewResolver(store, catalog),
		cache:        principalCache,
		sink:         sink,
		log:          log,
		storeTimeout: timeout,
		bypass:       bypass,
	}
	// Flag resolution reuses the cached role expansion of EffectiveRoles.
	s.flags = feature.NewResolver(store, s)
	return s
}

// EffectiveRoles returns the principal's expanded role set, ordered by
// descending hierarchy level. Cache fast path; a miss falls through to the
// resolver and refills the cache best-effort.
func (s *Service) EffectiveRoles(ctx context.Context, principalID string) ([]string, error) {
	cctx, ccancel := s.boundedCtx(ctx)
	roles, ok := s.cache.GetRoles(cctx, principalID)
	ccancel()
	if ok {
		return roles, nil
	}

	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	roles, err := s.resolver.EffectiveRoles(tctx, principalID)
	if err != nil {
		return nil, err
	}

	wctx, wcancel := s.boundedCtx(ctx)
	defer wcancel()
	s.cache.SetRoles(wctx, principalID, roles)
	return roles, nil
}

// EffectivePermissions returns the principal's effective permission set: the
// union of owned permissions over the expanded role set. Cache fast path; a
// miss falls through to the resolver and refills the cache best-effort.
func (s *Service) EffectivePermissions(ctx context.Context, principalID string) ([]string, error) {
	cctx, ccancel := s.boundedCtx(ctx)
	perms, ok := s.cache.GetPermissions(cctx, principalID)
	ccancel()
	if ok {
		return perms, nil
	}

	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	perms, err := s.resolver.EffectivePermissions(tctx, principalID)
	if err != nil {
		return nil, err
	}

	wctx, wcancel := s.boundedCtx(ctx)
	defer wcancel()
	s.cache.SetPermissions(wctx, principalID, perms)
	return perms, nil
}

// HasPermission reports whether the principal's effective permission set
// grants the permission, directly or via wildcard.
func (s *Service) HasPermission(ctx context.Context, principalID, permission string) (bool, error) {
	held, err := s.EffectivePermissions(ctx, principalID)
	if err != nil {
		return false, err
	}
	return permissions.Has(held, permission), nil
}

// HasPermissionInTenant gates HasPermission behind tenant-access validation:
// the principal must hold an active binding to the tenant (or a bypass role)
// before the permission itself is considered.
func (s *Service) HasPermissionInTenant(ctx context.Context, principalID, permission, tenantID string) (bool, error) {
	ok, err := s.ValidateTenantAccess(ctx, principalID, tenantID)
	if err != nil || !ok {
		return false, err
	}
	return s.HasPermission(ctx, principalID, permission)
}

// HasAnyPermission reports whether the principal holds at least one of the
// given permissions. An empty list is trivially satisfied.
func (s *Service) HasAnyPermission(ctx context.Context, principalID string, perms ...string) (bool, error) {
	held, err := s.EffectivePermissions(ctx, principalID)
	if err != nil {
		return false, err
	}
	return permissions.HasAny(held, perms), nil
}

// HasRoleLevel reports whether the principal's highest expanded role reaches
// the given hierarchy level.
func (s *Service) HasRoleLevel(ctx context.Context, principalID string, minLevel int) (bool, error) {
	roles, err := s.EffectiveRoles(ctx, principalID)
	if err != nil {
		return false, err
	}
	return s.catalog.MaxHierarchyLevel(roles) >= minLevel, nil
}

// ValidateTenantAccess reports whether the principal may act within the
// tenant: an active tenant binding exists, or the principal holds a bypass
// role. Persistence failure yields (false, err), never a grant.
func (s *Service) ValidateTenantAccess(ctx context.Context, principalID, tenantID string) (bool, error) {
	roles, err := s.EffectiveRoles(ctx, principalID)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if _, ok := s.bypass[role]; ok {
			return true, nil
		}
	}

	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	binding, err := s.store.GetTenantBinding(tctx, principalID, tenantID)
	if errors.Is(err, ErrBindingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authz: tenant binding for %s: %w", principalID, err)
	}
	return binding.Active(), nil
}

// ResolveFeatureFlag returns the effective value of the named flag for the
// principal in the tenant, falling back to def when nothing matches. The
// error is reserved for infrastructure failures; callers keep def then.
func (s *Service) ResolveFeatureFlag(ctx context.Context, flagName, principalID, tenantID string, def bool) (bool, error) {
	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	return s.flags.Resolve(tctx, flagName, principalID, tenantID, def)
}

// AssignRole grants roleName to the principal. Sequence: persist, invalidate
// the principal's cache entries, emit the audit entry, return. Cache and
// audit failures never fail an already-persisted assignment; an audit
// failure is surfaced on Result.AuditErr.
func (s *Service) AssignRole(ctx context.Context, principalID, roleName, assignedBy string) (Result, error) {
	if _, ok := s.catalog.Role(roleName); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
	}

	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	err := s.store.InsertRoleAssignment(tctx, rbac.Assignment{
		PrincipalID: principalID,
		RoleName:    roleName,
		AssignedBy:  assignedBy,
		AssignedAt:  time.Now(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("authz: assign role %s to %s: %w", roleName, principalID, err)
	}

	s.invalidate(ctx, principalID)

	entry := audit.NewEntry(assignedBy, ActionRoleAssign, principalID)
	entry.Details = map[string]any{"role": roleName}
	return s.record(ctx, entry), nil
}

// RemoveRole revokes roleName from the principal. Permissions still granted
// by another held or inherited role survive; only the direct assignment is
// removed.
func (s *Service) RemoveRole(ctx context.Context, principalID, roleName, removedBy string) (Result, error) {
	if _, ok := s.catalog.Role(roleName); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleName)
	}

	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	if err := s.store.DeleteRoleAssignment(tctx, principalID, roleName); err != nil {
		return Result{}, fmt.Errorf("authz: remove role %s from %s: %w", roleName, principalID, err)
	}

	s.invalidate(ctx, principalID)

	entry := audit.NewEntry(removedBy, ActionRoleRemove, principalID)
	entry.Details = map[string]any{"role": roleName}
	return s.record(ctx, entry), nil
}

// SetFlagOverrideParams describes a feature-flag override mutation.
type SetFlagOverrideParams struct {
	FlagName string
	Scope    feature.OverrideScope
	ScopeID  string
	Enabled  bool
	ActorID  string
	TenantID string
}

// SetFeatureFlagOverride creates or replaces an override for an existing
// flag. The flag must be defined globally or for the given tenant; an
// override on an undefined flag is rejected with ErrUnknownFlag.
func (s *Service) SetFeatureFlagOverride(ctx context.Context, params SetFlagOverrideParams) (Result, error) {
	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	if err := s.flagDefined(tctx, params.FlagName, params.TenantID); err != nil {
		return Result{}, err
	}

	err := s.store.UpsertFlagOverride(tctx, feature.Override{
		FlagName: params.FlagName,
		Scope:    params.Scope,
		ScopeID:  params.ScopeID,
		Enabled:  params.Enabled,
	})
	if err != nil {
		return Result{}, fmt.Errorf("authz: set override for flag %s: %w", params.FlagName, err)
	}

	entry := audit.NewEntry(params.ActorID, ActionFlagSet, params.FlagName)
	entry.TenantID = params.TenantID
	entry.Details = map[string]any{
		"scope":    string(params.Scope),
		"scope_id": params.ScopeID,
		"enabled":  params.Enabled,
	}
	return s.record(ctx, entry), nil
}

// flagDefined checks the flag exists at global scope or, when a tenant is
// given, at tenant scope.
func (s *Service) flagDefined(ctx context.Context, flagName, tenantID string) error {
	_, err := s.store.GetFlag(ctx, flagName, feature.ScopeGlobal, "")
	if err == nil {
		return nil
	}
	if !errors.Is(err, feature.ErrFlagNotFound) {
		return fmt.Errorf("authz: look up flag %s: %w", flagName, err)
	}

	if tenantID != "" {
		_, err = s.store.GetFlag(ctx, flagName, feature.ScopeTenant, tenantID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, feature.ErrFlagNotFound) {
			return fmt.Errorf("authz: look up flag %s: %w", flagName, err)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownFlag, flagName)
}

// record emits the audit entry, converting a sink failure into a warning on
// the result. The mutation preceding it has already been committed.
func (s *Service) record(ctx context.Context, entry audit.Entry) Result {
	if err := s.sink.Record(ctx, entry); err != nil {
		s.log.WarnContext(ctx, "audit sink rejected entry, mutation already committed",
			slog.String("action", entry.Action),
			slog.String("target", entry.Target),
			slog.Any("error", err))
		return Result{AuditErr: errors.Join(audit.ErrSinkUnavailable, err)}
	}
	return Result{}
}

// invalidate drops the principal's cache entries under the same timeout as
// any other backend call, so a hung cache backend cannot block a mutation
// that is already persisted.
func (s *Service) invalidate(ctx context.Context, principalID string) {
	tctx, cancel := s.boundedCtx(ctx)
	defer cancel()
	s.cache.InvalidatePrincipal(tctx, principalID)
}

// boundedCtx caps a single persistence or cache backend call at the
// configured store timeout.
func (s *Service) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
