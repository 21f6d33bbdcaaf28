package timeutil

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storedFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

func TestNormalize_AwareInputs(t *testing.T) {
	t.Parallel()

	t.Run("utc_z_suffix", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30T15:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30T15:00:00.000Z", got)
	})

	t.Run("explicit_offset_converted_to_utc", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30T15:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30T13:00:00.000Z", got)
	})

	t.Run("space_separator_with_offset", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30 15:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30T13:00:00.000Z", got)
	})

	t.Run("subsecond_precision_truncated_to_millis", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30T15:00:00.123456Z")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30T15:00:00.123Z", got)
	})
}

func TestNormalize_BareInputsAreLocalEndOfRange(t *testing.T) {
	t.Parallel()

	t.Run("date_only_is_end_of_day", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30")
		require.NoError(t, err)
		assert.True(t, storedFormatRe.MatchString(got), "got %q", got)

		want := time.Date(2026, 1, 30, 23, 59, 59, 999_000_000, time.Local).UTC().Format("2006-01-02T15:04:05.000Z")
		assert.Equal(t, want, got)
	})

	t.Run("minute_is_end_of_minute", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30 15:00")
		require.NoError(t, err)
		want := time.Date(2026, 1, 30, 15, 0, 59, 999_000_000, time.Local).UTC().Format("2006-01-02T15:04:05.000Z")
		assert.Equal(t, want, got)
	})

	t.Run("second_is_end_of_second", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize("2026-01-30T15:00:30")
		require.NoError(t, err)
		want := time.Date(2026, 1, 30, 15, 0, 30, 999_000_000, time.Local).UTC().Format("2006-01-02T15:04:05.000Z")
		assert.Equal(t, want, got)
	})
}

func TestNormalize_LexicographicOrderMatchesChronological(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"2026-01-30T09:00:00Z",
		"2026-01-30T10:30:00+02:00", // 08:30 UTC
		"2026-01-30T12:00:00-01:00", // 13:00 UTC
	}
	var normalized []string
	for _, in := range inputs {
		got, err := Normalize(in)
		require.NoError(t, err)
		normalized = append(normalized, got)
	}
	assert.Less(t, normalized[1], normalized[0])
	assert.Less(t, normalized[0], normalized[2])
}

func TestNormalize_Rejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "not-a-date", "30/01/2026", "2026-1-3", "2026-01-30 25:00"} {
		_, err := Normalize(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrBadTimestamp), "input %q: %v", in, err)
	}
}

func TestToLocal_RoundTrips(t *testing.T) {
	t.Parallel()

	got := ToLocal("2026-01-30T14:00:00.000Z")
	want := time.Date(2026, 1, 30, 14, 0, 0, 0, time.UTC).Local().Format("2006-01-02 15:04")
	assert.Equal(t, want, got)
}

func TestToLocal_PassesThroughGarbage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "garbage", ToLocal("garbage"))
}

func TestFormatLocalConfirmation(t *testing.T) {
	t.Parallel()

	got := FormatLocalConfirmation("2026-01-30T14:00:00.000Z")
	assert.Contains(t, got, "2026-01-30T14:00:00.000Z")
	assert.Contains(t, got, "local)")

	assert.Equal(t, "garbage", FormatLocalConfirmation("garbage"))
}
