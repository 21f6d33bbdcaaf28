// Package settings provides configuration loading for reclaim. Settings live
// in ~/.config/reclaim/settings.json with optional overrides from
// settings.local.json alongside it.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/reclaimio/cli/cmd/reclaim/cli/paths"
)

const (
	// SettingsFile is the base settings file name.
	SettingsFile = "settings.json"
	// SettingsLocalFile is the uncommitted local override file name.
	SettingsLocalFile = "settings.local.json"
)

// Settings is the persisted configuration.
type Settings struct {
	// ClaudeDir overrides the default transcript root (~/.claude).
	ClaudeDir string `json:"claude_dir,omitempty"`

	// LogLevel sets logging verbosity. Overridden by RECLAIM_LOG_LEVEL.
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// Workers bounds the transcript scan pool.
	Workers int `json:"workers,omitempty" validate:"omitempty,gte=1,lte=64"`

	// InjectionThreshold is the fraction of Read-bearing files a trailing
	// block must recur in before it is treated as injected content.
	InjectionThreshold *float64 `json:"injection_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`

	// Telemetry controls anonymous usage analytics.
	// nil = not asked yet, true = opted in, false = opted out.
	Telemetry *bool `json:"telemetry,omitempty"`
}

var validate = validator.New()

// Load reads settings.json from the config directory, applies overrides from
// settings.local.json, and validates the result. Missing files yield
// defaults.
func Load() (*Settings, error) {
	return LoadFrom(paths.SettingsDir())
}

// LoadFrom loads settings from a specific directory. Used by tests and by
// callers that relocate the config dir.
func LoadFrom(dir string) (*Settings, error) {
	s := &Settings{}

	if err := readInto(s, filepath.Join(dir, SettingsFile)); err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	if err := readInto(s, filepath.Join(dir, SettingsLocalFile)); err != nil {
		return nil, fmt.Errorf("reading local settings file: %w", err)
	}

	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// readInto merges one settings file into s. A missing file is not an error;
// present fields override, absent fields are left alone.
func readInto(s *Settings, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is under the config dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes settings to settings.json in the config directory.
func Save(s *Settings) error {
	return SaveTo(s, paths.SettingsDir())
}

// SaveTo writes settings to a specific directory.
func SaveTo(s *Settings, dir string) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	data = append(data, '\n')
	//nolint:gosec // settings are config, not secrets
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), data, 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
