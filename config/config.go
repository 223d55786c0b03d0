// Package config loads and validates runner settings from an optional TOML
// file, with in-repo defaults applied when no file is present. There are no
// environment-variable overrides: settings come only from the file and the
// defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/evdnx/msengine/types"
)

// Settings holds the runner's settings. Only VisibilityMode reaches the
// analysis (through Mode); PerKindLevelCap is validated but not applied, as
// the overlay assembler always uses its fixed overlay.PerKindLevelCap.
type Settings struct {
	VisibilityMode  string `mapstructure:"visibility_mode"`
	PerKindLevelCap int    `mapstructure:"per_kind_level_cap"`
}

// Validate checks that Settings holds a recognized visibility mode and a
// sane level cap.
func (s *Settings) Validate() error {
	switch types.VisibilityMode(s.VisibilityMode) {
	case types.VisibilityAll, types.VisibilityProtectedOnly, types.VisibilityLevelsOnly, types.VisibilityMarkersOnly:
	default:
		return fmt.Errorf("visibility_mode %q is not one of all, protected-only, levels-only, markers-only", s.VisibilityMode)
	}
	if s.PerKindLevelCap <= 0 {
		return fmt.Errorf("per_kind_level_cap (%d) must be positive", s.PerKindLevelCap)
	}
	return nil
}

// Mode returns the parsed visibility mode.
func (s *Settings) Mode() types.VisibilityMode {
	return types.VisibilityMode(s.VisibilityMode)
}

// Load reads settings from the TOML file at path, falling back to defaults
// for any field the file omits. An empty path loads pure defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("visibility_mode", string(types.VisibilityAll))
	v.SetDefault("per_kind_level_cap", 24)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings file %s: %w", path, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return settings, nil
}
