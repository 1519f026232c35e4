package feature

import (
	"context"
	"errors"
	"sync"
	"time"
)

type flagKey struct {
	name    string
	scope   FlagScope
	scopeID string
}

type overrideKey struct {
	name    string
	scope   OverrideScope
	scopeID string
}

// MemoryStore is an in-memory Store implementation. It is thread-safe and
// useful for tests and single-process applications.
type MemoryStore struct {
	mu        sync.RWMutex
	flags     map[flagKey]Flag
	overrides map[overrideKey]Override
}

// NewMemoryStore creates an empty in-memory flag store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags:     make(map[flagKey]Flag),
		overrides: make(map[overrideKey]Override),
	}
}

// GetFlag returns the flag definition at the given scope.
func (s *MemoryStore) GetFlag(ctx context.Context, name string, scope FlagScope, scopeID string) (Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flag, ok := s.flags[flagKey{name: name, scope: scope, scopeID: scopeID}]
	if !ok {
		return Flag{}, ErrFlagNotFound
	}
	return flag, nil
}

// SetFlag creates or replaces a flag definition.
func (s *MemoryStore) SetFlag(ctx context.Context, flag Flag) error {
	if flag.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}
	if flag.Scope == ScopeTenant && flag.TenantID == "" {
		return errors.Join(ErrInvalidFlag, errors.New("tenant flag requires tenant id"))
	}
	flag.UpdatedAt = time.Now()

	s.mu.Lock()
	s.flags[flagKey{name: flag.Name, scope: flag.Scope, scopeID: flag.TenantID}] = flag
	s.mu.Unlock()
	return nil
}

// GetOverride returns the override for (name, scope, scopeID).
func (s *MemoryStore) GetOverride(ctx context.Context, name string, scope OverrideScope, scopeID string) (Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	override, ok := s.overrides[overrideKey{name: name, scope: scope, scopeID: scopeID}]
	if !ok {
		return Override{}, ErrOverrideNotFound
	}
	return override, nil
}

// UpsertOverride creates or replaces an override.
func (s *MemoryStore) UpsertOverride(ctx context.Context, override Override) error {
	if override.FlagName == "" || override.ScopeID == "" {
		return errors.Join(ErrInvalidFlag, errors.New("override requires flag name and scope id"))
	}
	override.UpdatedAt = time.Now()

	s.mu.Lock()
	s.overrides[overrideKey{name: override.FlagName, scope: override.Scope, scopeID: override.ScopeID}] = override
	s.mu.Unlock()
	return nil
}

// DeleteOverride removes an override. Removing a missing override is not an
// error.
func (s *MemoryStore) DeleteOverride(ctx context.Context, name string, scope OverrideScope, scopeID string) error {
	s.mu.Lock()
	delete(s.overrides, overrideKey{name: name, scope: scope, scopeID: scopeID})
	s.mu.Unlock()
	return nil
}
