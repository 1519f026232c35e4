package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultTTL is the default lifetime of cached authorization state.
const DefaultTTL = 300 * time.Second

// Config holds principal-cache settings, typically populated from the
// environment.
type Config struct {
	// TTL is the lifetime of cached roles and permissions.
	TTL time.Duration `env:"AUTHZ_CACHE_TTL" envDefault:"300s"`
}

// LoadConfig populates Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("cache: parse config: %w", err)
	}
	return cfg, nil
}

// PrincipalCache memoizes a principal's expanded roles and effective
// permissions behind a pluggable backend.
//
// All backend failures degrade: reads become misses and writes are dropped
// with a warning log, so a cache outage costs latency but never changes an
// authorization decision.
type PrincipalCache struct {
	backend Backend
	ttl     time.Duration
	log     *slog.Logger
}

// NewPrincipalCache builds a PrincipalCache over the given backend. A nil
// logger falls back to slog.Default; a non-positive TTL falls back to
// DefaultTTL.
func NewPrincipalCache(backend Backend, cfg Config, log *slog.Logger) *PrincipalCache {
	if log == nil {
		log = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PrincipalCache{backend: backend, ttl: ttl, log: log}
}

// RolesKey returns the cache key holding a principal's expanded roles.
func RolesKey(principalID string) string {
	return "roles:" + principalID
}

// PermissionsKey returns the cache key holding a principal's effective
// permissions.
func PermissionsKey(principalID string) string {
	return "permissions:" + principalID
}

// GetRoles returns the cached expanded role set, or false on a miss. Backend
// failures are reported as misses.
func (c *PrincipalCache) GetRoles(ctx context.Context, principalID string) ([]string, bool) {
	return c.get(ctx, RolesKey(principalID))
}

// SetRoles stores the expanded role set, best effort.
func (c *PrincipalCache) SetRoles(ctx context.Context, principalID string, roles []string) {
	c.set(ctx, RolesKey(principalID), roles)
}

// GetPermissions returns the cached effective permission set, or false on a
// miss. Backend failures are reported as misses.
func (c *PrincipalCache) GetPermissions(ctx context.Context, principalID string) ([]string, bool) {
	return c.get(ctx, PermissionsKey(principalID))
}

// SetPermissions stores the effective permission set, best effort.
func (c *PrincipalCache) SetPermissions(ctx context.Context, principalID string, perms []string) {
	c.set(ctx, PermissionsKey(principalID), perms)
}

// InvalidatePrincipal drops both cached keys for the principal. Callers
// invoke it synchronously after the underlying mutation is durably
// persisted and before reporting success; a backend failure here is logged
// and swallowed; the entries self-correct at TTL expiry.
func (c *PrincipalCache) InvalidatePrincipal(ctx context.Context, principalID string) {
	for _, key := range []string{RolesKey(principalID), PermissionsKey(principalID)} {
		if err := c.backend.Delete(ctx, key); err != nil {
			c.log.WarnContext(ctx, "authorization cache invalidate failed, entry expires at ttl",
				slog.String("key", key), slog.Any("error", err))
		}
	}
}

// Close closes the underlying backend.
func (c *PrincipalCache) Close() error {
	return c.backend.Close()
}

func (c *PrincipalCache) get(ctx context.Context, key string) ([]string, bool) {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "authorization cache read failed, treating as miss",
			slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		// A corrupt entry is as good as a miss; drop it so it gets refilled.
		c.log.WarnContext(ctx, "authorization cache entry corrupt, dropping",
			slog.String("key", key), slog.Any("error", err))
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}
	return values, true
}

func (c *PrincipalCache) set(ctx context.Context, key string, values []string) {
	raw, err := json.Marshal(values)
	if err != nil {
		c.log.WarnContext(ctx, "authorization cache encode failed",
			slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.WarnContext(ctx, "authorization cache write failed",
			slog.String("key", key), slog.Any("error", err))
	}
}
