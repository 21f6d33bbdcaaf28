// Package symlinks detects directory-prefix aliases (paths that reach the
// same file through a symlinked directory) and folds aliased timelines onto
// their canonical paths.
package symlinks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group is a canonical directory and the alias prefixes that resolve to it.
// DetectionMethods maps each alias to how it was found ("FS" for filesystem
// probing); display metadata only, never persisted.
type Group struct {
	Canonical        string
	Aliases          []string
	DetectionMethods map[string]string
}

// probeCache memoizes symlink probes per directory prefix. A nil entry means
// the prefix is not a symlink.
type probeCache map[string]*string

// shallowestSymlink walks a path's components from root down and returns the
// shallowest prefix that is a symbolic link, with its resolved target.
// Returns ("", "") when no component is a link.
func shallowestSymlink(path string, cache probeCache) (prefix, target string) {
	clean := filepath.Clean(path)
	sep := string(filepath.Separator)

	var cur string
	for _, part := range splitComponents(clean) {
		if cur == "" {
			cur = sep + part
		} else {
			cur = cur + sep + part
		}

		resolved, ok := cache[cur]
		if !ok {
			resolved = probeLink(cur)
			cache[cur] = resolved
		}
		if resolved != nil {
			return cur, *resolved
		}
	}
	return "", ""
}

// probeLink returns the normalized target when p is a symlink, else nil.
func probeLink(p string) *string {
	info, err := os.Lstat(p)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	target, err := os.Readlink(p)
	if err != nil {
		return nil
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(p), target)
	}
	target = filepath.Clean(target)
	return &target
}

// splitComponents breaks a cleaned absolute path into its path elements.
func splitComponents(clean string) []string {
	s := strings.TrimPrefix(filepath.ToSlash(clean), "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// DetectFS probes the live filesystem for symlinked directory prefixes among
// the given file paths, and groups the discovered aliases by resolved target.
func DetectFS(paths []string) []Group {
	cache := make(probeCache)
	// alias prefix -> resolved target
	aliasTarget := map[string]string{}

	for _, p := range paths {
		prefix, target := shallowestSymlink(p, cache)
		if prefix != "" {
			aliasTarget[prefix] = target
		}
	}

	byTarget := map[string][]string{}
	for alias, target := range aliasTarget {
		byTarget[target] = append(byTarget[target], alias)
	}

	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	groups := make([]Group, 0, len(targets))
	for _, target := range targets {
		aliases := byTarget[target]
		sort.Strings(aliases)
		methods := make(map[string]string, len(aliases))
		for _, a := range aliases {
			methods[a] = "FS"
		}
		groups = append(groups, Group{
			Canonical:        target,
			Aliases:          aliases,
			DetectionMethods: methods,
		})
	}
	return groups
}

// Save writes groups to a YAML mapping of canonical -> [aliases]. Groups with
// no aliases are skipped.
func Save(groups []Group, path string) error {
	data := map[string][]string{}
	for _, g := range groups {
		if len(g.Aliases) == 0 {
			continue
		}
		aliases := append([]string(nil), g.Aliases...)
		sort.Strings(aliases)
		data[g.Canonical] = aliases
	}

	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling symlink mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating mapping directory: %w", err)
	}
	//nolint:gosec // mapping file is configuration, not secrets
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing symlink mapping: %w", err)
	}
	return nil
}

// Load reads a YAML mapping written by Save. Groups come back without
// detection metadata. Entries that are not string lists are skipped.
func Load(path string) ([]Group, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-chosen config
	if err != nil {
		return nil, fmt.Errorf("reading symlink mapping: %w", err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing symlink mapping: %w", err)
	}

	canonicals := make([]string, 0, len(raw))
	for c := range raw {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	groups := make([]Group, 0, len(canonicals))
	for _, c := range canonicals {
		groups = append(groups, Group{Canonical: c, Aliases: raw[c]})
	}
	return groups, nil
}
