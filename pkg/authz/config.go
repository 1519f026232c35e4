package authz

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds service settings, typically populated from the environment
// via caarlos0/env.
type Config struct {
	// StoreTimeout bounds every persistence and cache backend call issued
	// by a single decision or mutation.
	StoreTimeout time.Duration `env:"AUTHZ_STORE_TIMEOUT" envDefault:"2s"`

	// BypassRoles names the roles that skip tenant-binding validation
	// entirely. Matched against the principal's expanded role set.
	BypassRoles []string `env:"AUTHZ_BYPASS_ROLES" envDefault:"super_admin"`
}

// DefaultStoreTimeout applies when Config.StoreTimeout is unset.
const DefaultStoreTimeout = 2 * time.Second

// LoadConfig populates Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("authz: parse config: %w", err)
	}
	return cfg, nil
}
