package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable name, for example
// CATBATTLE_STORAGE_BACKEND or CATBATTLE_LOG_LEVEL.
const EnvPrefix = "CATBATTLE_"

// applyEnv overrides fields whose variables are set; unset variables leave
// file values alone.
func applyEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}
