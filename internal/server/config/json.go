package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/shortlink-auth/internal/flagx"
	"github.com/dmitrijs2005/shortlink-auth/internal/timex"
)

// jsonConfig is the on-disk shape. Durations use timex.Duration so files can
// say "30m"; zero values mean "keep what is already set".
type jsonConfig struct {
	Config
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	PublishTimeout               timex.Duration `json:"publish_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// start from the current values so absent keys keep them
	c := &jsonConfig{Config: *config}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	*config = c.Config
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.PublishTimeout.Duration != 0 {
		config.PublishTimeout = c.PublishTimeout.Duration
	}
	return nil
}
