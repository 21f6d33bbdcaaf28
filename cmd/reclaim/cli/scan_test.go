package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
)

func strPtr(s string) *string { return &s }

func indexWith(paths ...string) recovery.Index {
	idx := make(recovery.Index, len(paths))
	for i, p := range paths {
		ts := "2026-01-30T10:00:10.000Z"
		if i%2 == 1 {
			ts = "2026-01-30T12:00:10.000Z"
		}
		idx[p] = &recovery.File{Path: p, Operations: []*recovery.Operation{{
			Kind: recovery.KindWriteCreate, Path: p, Timestamp: ts,
			SessionID: "s1", LineNumber: 1, Content: strPtr("x"),
		}}}
	}
	return idx
}

func TestFilterFlags_Apply(t *testing.T) {
	t.Parallel()

	t.Run("glob_pattern", func(t *testing.T) {
		t.Parallel()
		f := &filterFlags{pattern: "*.go", mode: "glob"}
		idx, ordered, cutoff, err := f.apply(indexWith("/a/main.go", "/a/readme.md"))
		require.NoError(t, err)
		assert.Empty(t, cutoff)
		assert.Equal(t, []string{"/a/main.go"}, ordered)
		assert.Len(t, idx, 1)
	})

	t.Run("before_cutoff_drops_late_files", func(t *testing.T) {
		t.Parallel()
		f := &filterFlags{mode: "glob", before: "2026-01-30T11:00:00Z"}
		idx, ordered, cutoff, err := f.apply(indexWith("/early.go", "/late.go"))
		require.NoError(t, err)
		assert.Equal(t, "2026-01-30T11:00:00.000Z", cutoff)
		assert.Equal(t, []string{"/early.go"}, ordered)
		assert.Len(t, idx, 1)
	})

	t.Run("bad_mode", func(t *testing.T) {
		t.Parallel()
		f := &filterFlags{mode: "bogus"}
		_, _, _, err := f.apply(indexWith("/a"))
		require.Error(t, err)
	})

	t.Run("bad_before", func(t *testing.T) {
		t.Parallel()
		f := &filterFlags{mode: "glob", before: "not-a-time"}
		_, _, _, err := f.apply(indexWith("/a"))
		require.Error(t, err)
	})

	t.Run("bad_regex", func(t *testing.T) {
		t.Parallel()
		f := &filterFlags{mode: "regex", pattern: "[unclosed"}
		_, _, _, err := f.apply(indexWith("/a"))
		require.Error(t, err)
	})
}

func TestCaseOverride(t *testing.T) {
	t.Parallel()

	assert.Nil(t, (&filterFlags{}).caseOverride())

	v := (&filterFlags{caseSensitive: true}).caseOverride()
	require.NotNil(t, v)
	assert.True(t, *v)

	v = (&filterFlags{ignoreCase: true}).caseOverride()
	require.NotNil(t, v)
	assert.False(t, *v)
}
