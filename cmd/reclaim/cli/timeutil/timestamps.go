// Package timeutil normalizes user-supplied instants into the UTC string
// format used by session transcripts, so that lexicographic comparison of
// timestamps equals chronological comparison.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrBadTimestamp is returned when an input matches none of the accepted shapes.
var ErrBadTimestamp = errors.New("bad timestamp")

// utcMillis is the stored transcript timestamp format: "2026-01-30T14:00:00.000Z".
const utcMillis = "2006-01-02T15:04:05.000Z"

var (
	dateOnlyRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateMinuteRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}$`)
	dateSecondRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}$`)
	offsetRe     = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)
)

// Normalize converts flexible user input into a UTC ISO 8601 string with
// millisecond precision.
//
// Accepted forms:
//
//	"2026-01-30"             end of day in local time
//	"2026-01-30 15:00"       end of minute in local time
//	"2026-01-30 15:00:30"    end of second in local time
//	"2026-01-30T15:00:00Z"   UTC, honored as-is
//	"2026-01-30 15:00+02:00" offset honored
//
// Bare forms are interpreted as local time and rounded up to the end of the
// given day/minute/second before conversion.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrBadTimestamp)
	}

	if strings.Contains(s, "Z") || offsetRe.MatchString(s) {
		return parseAware(s)
	}

	switch {
	case dateOnlyRe.MatchString(s):
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrBadTimestamp, input)
		}
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)
		return t.UTC().Format(utcMillis), nil

	case dateMinuteRe.MatchString(s):
		t, err := time.ParseInLocation("2006-01-02 15:04", strings.Replace(s, "T", " ", 1), time.Local)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrBadTimestamp, input)
		}
		t = t.Add(59*time.Second + 999*time.Millisecond)
		return t.UTC().Format(utcMillis), nil

	case dateSecondRe.MatchString(s):
		t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.Replace(s, "T", " ", 1), time.Local)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrBadTimestamp, input)
		}
		t = t.Add(999 * time.Millisecond)
		return t.UTC().Format(utcMillis), nil
	}

	return "", fmt.Errorf("%w: %q (expected YYYY-MM-DD, YYYY-MM-DD HH:MM, YYYY-MM-DD HH:MM:SS, or full ISO 8601 with timezone)", ErrBadTimestamp, input)
}

// parseAware parses a timestamp carrying explicit timezone information.
func parseAware(s string) (string, error) {
	normalized := strings.Replace(s, " ", "T", 1)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.UTC().Format(utcMillis), nil
		}
	}
	return "", fmt.Errorf("%w: cannot parse %q with timezone", ErrBadTimestamp, s)
}

// ToLocal converts a stored UTC timestamp to a local-time display string.
// Returns the raw input when it cannot be parsed.
func ToLocal(utcTS string) string {
	t, err := parseStored(utcTS)
	if err != nil {
		return utcTS
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatLocalConfirmation renders a normalized timestamp together with its
// local-time equivalent, e.g. "2026-01-30T14:00:00.000Z (2026-01-30 15:00 local)".
func FormatLocalConfirmation(utcTS string) string {
	local := ToLocal(utcTS)
	if local == utcTS {
		return utcTS
	}
	return fmt.Sprintf("%s (%s local)", utcTS, local)
}

func parseStored(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, ts)
}
