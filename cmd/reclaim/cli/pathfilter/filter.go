// Package pathfilter scores file paths against user patterns in one of three
// modes: fuzzy, glob, or regex. Case sensitivity follows the smart-case
// convention unless explicitly overridden.
package pathfilter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sahilm/fuzzy"
)

// Mode selects the matching algorithm.
type Mode string

const (
	ModeFuzzy Mode = "fuzzy"
	ModeGlob  Mode = "glob"
	ModeRegex Mode = "regex"
)

// ErrBadRegex is returned when a regex pattern does not compile.
var ErrBadRegex = errors.New("bad regex")

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFuzzy, ModeGlob, ModeRegex:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown filter mode %q (expected fuzzy, glob, or regex)", s)
}

// SmartCaseSensitive reports whether matching should be case-sensitive.
// An explicit override wins; otherwise the pattern is case-sensitive iff it
// contains at least one uppercase character.
func SmartCaseSensitive(pattern string, override *bool) bool {
	if override != nil {
		return *override
	}
	for _, r := range pattern {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// MatchPath scores how well path matches pattern under the given mode.
// Fuzzy returns a relevance score > 0 on match; glob and regex return 1.
// No match (including an invalid regex) returns 0. An empty pattern matches
// everything.
func MatchPath(path, pattern string, mode Mode, caseSensitive bool) float64 {
	if pattern == "" {
		return 1
	}

	switch mode {
	case ModeFuzzy:
		return fuzzyScore(path, pattern, caseSensitive)

	case ModeGlob:
		base := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			base = path[i+1:]
		}
		p, full, b := pattern, path, base
		if !caseSensitive {
			p, full, b = strings.ToLower(p), strings.ToLower(full), strings.ToLower(b)
		}
		if ok, err := doublestar.Match(p, full); err == nil && ok {
			return 1
		}
		if ok, err := doublestar.Match(p, b); err == nil && ok {
			return 1
		}
		return 0

	case ModeRegex:
		p := pattern
		if !caseSensitive {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return 0
		}
		if re.MatchString(path) {
			return 1
		}
		return 0
	}

	return 0
}

// fuzzyScore ranks path against pattern. The underlying matcher is
// case-insensitive with a bonus for exact-case runs, so case-sensitive mode
// additionally requires the pattern to appear as a case-exact subsequence.
func fuzzyScore(path, pattern string, caseSensitive bool) float64 {
	if caseSensitive && !isSubsequence(pattern, path) {
		return 0
	}
	matches := fuzzy.Find(pattern, []string{path})
	if len(matches) == 0 {
		return 0
	}
	// The matcher can emit non-positive scores for weak matches; the filter
	// contract is score > 0 for every match.
	score := float64(matches[0].Score)
	if score <= 0 {
		score = 1
	}
	return score
}

// isSubsequence reports whether every rune of needle appears, in order, in haystack.
func isSubsequence(needle, haystack string) bool {
	hs := []rune(haystack)
	i := 0
	for _, r := range needle {
		for i < len(hs) && hs[i] != r {
			i++
		}
		if i == len(hs) {
			return false
		}
		i++
	}
	return true
}

// ValidateRegex reports whether pattern compiles, wrapping the compile error
// in ErrBadRegex so callers can surface it without panicking.
func ValidateRegex(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRegex, err)
	}
	return nil
}

// Rank filters paths by pattern and returns the survivors. Fuzzy results are
// re-ranked by descending score (ties keep input order); glob and regex keep
// input order. Regex patterns are validated up front.
func Rank(paths []string, pattern string, mode Mode, override *bool) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	if mode == ModeRegex {
		if err := ValidateRegex(pattern); err != nil {
			return nil, err
		}
	}
	caseSensitive := SmartCaseSensitive(pattern, override)

	type scored struct {
		path  string
		score float64
	}
	var kept []scored
	for _, p := range paths {
		if s := MatchPath(p, pattern, mode, caseSensitive); s > 0 {
			kept = append(kept, scored{p, s})
		}
	}
	if mode == ModeFuzzy {
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	}
	out := make([]string, len(kept))
	for i, s := range kept {
		out[i] = s.path
	}
	return out, nil
}
