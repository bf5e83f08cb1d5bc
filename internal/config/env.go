package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the process environment. Nested sections are
// resolved through their envPrefix tags, so the stub address is read from
// STUB_ADDRESS and the archive secret from STORAGE_SECRET.
func parseEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error parsing engine env configs: %w", err)
	}
	return nil
}
