package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokerhq/authzkit/pkg/feature"
	"github.com/brokerhq/authzkit/pkg/rbac"
)

// PostgresStore implements Store over a pgx connection pool.
//
// The schema it expects:
//
//	roles(name text pk, permissions jsonb, hierarchy_level int, is_system bool)
//	role_assignments(principal_id text, role_name text, assigned_by text,
//	    assigned_at timestamptz, unique(principal_id, role_name))
//	tenant_bindings(principal_id text, tenant_id text, status text,
//	    unique(principal_id, tenant_id))
//	feature_flags(name text, scope text, tenant_id text null, enabled bool,
//	    updated_at timestamptz, unique(name, scope, coalesce(tenant_id, '')))
//	feature_flag_overrides(flag_name text, scope text, scope_id text,
//	    enabled bool, updated_at timestamptz, unique(flag_name, scope, scope_id))
//
// The jsonb permissions column on roles is the authoritative per-role
// permission list.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListPrincipalRoles returns the principal's directly assigned role names.
func (s *PostgresStore) ListPrincipalRoles(ctx context.Context, principalID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role_name FROM role_assignments WHERE principal_id = $1 ORDER BY role_name`,
		principalID)
	if err != nil {
		return nil, fmt.Errorf("authz: query principal roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("authz: scan role name: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: iterate principal roles: %w", err)
	}
	return roles, nil
}

// ListRolePermissions returns the role's owned permission list from the
// authoritative jsonb column. An undefined role yields an empty list, not
// an error: read-path resolution treats unknown entities as "no match".
func (s *PostgresStore) ListRolePermissions(ctx context.Context, roleName string) ([]string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT permissions FROM roles WHERE name = $1`, roleName).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authz: query role permissions: %w", err)
	}

	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, fmt.Errorf("authz: decode permissions of role %s: %w", roleName, err)
	}
	return perms, nil
}

// InsertRoleAssignment persists a new assignment; a conflicting row means
// the principal already holds the role.
func (s *PostgresStore) InsertRoleAssignment(ctx context.Context, assignment rbac.Assignment) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO role_assignments (principal_id, role_name, assigned_by, assigned_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (principal_id, role_name) DO NOTHING`,
		assignment.PrincipalID, assignment.RoleName, assignment.AssignedBy, assignment.AssignedAt)
	if err != nil {
		return fmt.Errorf("authz: insert role assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyAssigned, assignment.RoleName)
	}
	return nil
}

// DeleteRoleAssignment removes an assignment.
func (s *PostgresStore) DeleteRoleAssignment(ctx context.Context, principalID, roleName string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM role_assignments WHERE principal_id = $1 AND role_name = $2`,
		principalID, roleName)
	if err != nil {
		return fmt.Errorf("authz: delete role assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrAssignmentNotFound, roleName)
	}
	return nil
}

// GetTenantBinding returns the binding for (principal, tenant).
func (s *PostgresStore) GetTenantBinding(ctx context.Context, principalID, tenantID string) (TenantBinding, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM tenant_bindings WHERE principal_id = $1 AND tenant_id = $2`,
		principalID, tenantID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return TenantBinding{}, ErrBindingNotFound
	}
	if err != nil {
		return TenantBinding{}, fmt.Errorf("authz: query tenant binding: %w", err)
	}
	return TenantBinding{PrincipalID: principalID, TenantID: tenantID, Status: BindingStatus(status)}, nil
}

// GetFlag returns the flag definition at the given scope; scopeID is the
// tenant ID for tenant scope and empty for global.
func (s *PostgresStore) GetFlag(ctx context.Context, name string, scope feature.FlagScope, scopeID string) (feature.Flag, error) {
	flag := feature.Flag{Name: name, Scope: scope, TenantID: scopeID}
	err := s.pool.QueryRow(ctx,
		`SELECT enabled, updated_at FROM feature_flags
		 WHERE name = $1 AND scope = $2 AND COALESCE(tenant_id, '') = $3`,
		name, string(scope), scopeID).Scan(&flag.Enabled, &flag.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return feature.Flag{}, feature.ErrFlagNotFound
	}
	if err != nil {
		return feature.Flag{}, fmt.Errorf("authz: query feature flag: %w", err)
	}
	return flag, nil
}

// GetOverride returns the override for (name, scope, scopeID).
func (s *PostgresStore) GetOverride(ctx context.Context, name string, scope feature.OverrideScope, scopeID string) (feature.Override, error) {
	override := feature.Override{FlagName: name, Scope: scope, ScopeID: scopeID}
	err := s.pool.QueryRow(ctx,
		`SELECT enabled, updated_at FROM feature_flag_overrides
		 WHERE flag_name = $1 AND scope = $2 AND scope_id = $3`,
		name, string(scope), scopeID).Scan(&override.Enabled, &override.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return feature.Override{}, feature.ErrOverrideNotFound
	}
	if err != nil {
		return feature.Override{}, fmt.Errorf("authz: query flag override: %w", err)
	}
	return override, nil
}

// UpsertFlagOverride creates or replaces an override.
func (s *PostgresStore) UpsertFlagOverride(ctx context.Context, override feature.Override) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feature_flag_overrides (flag_name, scope, scope_id, enabled, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (flag_name, scope, scope_id)
		 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()`,
		override.FlagName, string(override.Scope), override.ScopeID, override.Enabled)
	if err != nil {
		return fmt.Errorf("authz: upsert flag override: %w", err)
	}
	return nil
}

// RoleSource adapts the roles table into an rbac.Source so the catalog can
// be loaded from the same database the assignments live in.
type RoleSource struct {
	pool *pgxpool.Pool
}

// NewRoleSource returns an rbac.Source reading the roles and
// role_inheritance tables.
func NewRoleSource(pool *pgxpool.Pool) *RoleSource {
	return &RoleSource{pool: pool}
}

// Load reads every role definition plus the inheritance map.
func (s *RoleSource) Load(ctx context.Context) (map[string]rbac.Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, permissions, hierarchy_level, is_system FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("authz: query roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]rbac.Role)
	for rows.Next() {
		var (
			role rbac.Role
			raw  []byte
		)
		if err := rows.Scan(&role.Name, &raw, &role.HierarchyLevel, &role.IsSystem); err != nil {
			return nil, fmt.Errorf("authz: scan role: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &role.Permissions); err != nil {
				return nil, fmt.Errorf("authz: decode permissions of role %s: %w", role.Name, err)
			}
		}
		roles[role.Name] = role
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: iterate roles: %w", err)
	}

	inhRows, err := s.pool.Query(ctx,
		`SELECT role_name, inherits_role FROM role_inheritance`)
	if err != nil {
		return nil, fmt.Errorf("authz: query role inheritance: %w", err)
	}
	defer inhRows.Close()

	for inhRows.Next() {
		var child, parent string
		if err := inhRows.Scan(&child, &parent); err != nil {
			return nil, fmt.Errorf("authz: scan inheritance row: %w", err)
		}
		role, ok := roles[child]
		if !ok {
			return nil, fmt.Errorf("%w: inheritance row references %s", rbac.ErrUndefinedRole, child)
		}
		role.Inherits = append(role.Inherits, parent)
		roles[child] = role
	}
	if err := inhRows.Err(); err != nil {
		return nil, fmt.Errorf("authz: iterate role inheritance: %w", err)
	}
	return roles, nil
}
