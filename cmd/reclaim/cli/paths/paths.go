// Package paths resolves the directories the recovery tool works with: the
// assistant's config root, the settings directory, and output locations.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultClaudeDir returns the assistant's user config directory, ~/.claude.
func DefaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// SettingsDir returns the tool's own config directory, ~/.config/reclaim.
func SettingsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reclaim"
	}
	return filepath.Join(home, ".config", "reclaim")
}

// DefaultOutputDir builds the timestamped default extraction directory,
// e.g. ./recovered-2026-01-30-15-04-05.
func DefaultOutputDir(now time.Time) string {
	return "./recovered-" + now.Format("2006-01-02-15-04-05")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

// AbsPath expands and absolutizes a user-supplied path.
func AbsPath(p string) (string, error) {
	abs, err := filepath.Abs(ExpandHome(p))
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", p, err)
	}
	return abs, nil
}
