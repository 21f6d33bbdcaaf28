package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func writeOp(ts, content string) *Operation {
	return &Operation{Kind: KindWriteCreate, Path: "/f", Timestamp: ts, SessionID: "s1", Content: strPtr(content)}
}

func editOp(ts, old, new string, original *string) *Operation {
	return &Operation{
		Kind: KindEdit, Path: "/f", Timestamp: ts, SessionID: "s1",
		OldString: strPtr(old), NewString: strPtr(new), OriginalFile: original,
	}
}

func fullReadOp(ts, content string) *Operation {
	return &Operation{
		Kind: KindRead, Path: "/f", Timestamp: ts, SessionID: "s1",
		Content:       strPtr(content),
		ReadStartLine: intPtr(1), ReadNumLines: intPtr(3), ReadTotalLines: intPtr(3),
	}
}

func partialReadOp(ts, content string, start, num, total int) *Operation {
	return &Operation{
		Kind: KindRead, Path: "/f", Timestamp: ts, SessionID: "s1",
		Content:       strPtr(content),
		ReadStartLine: intPtr(start), ReadNumLines: intPtr(num), ReadTotalLines: intPtr(total),
	}
}

func TestReconstruct_CreateEditReadChain(t *testing.T) {
	t.Parallel()

	orig := "line1\nline2\nline3\n"
	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", orig),
		editOp("2026-01-30T10:00:11.000Z", "line2", "LINE2", strPtr(orig)),
		fullReadOp("2026-01-30T10:00:12.000Z", "line1\nLINE2\nline3\n"),
	}}

	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "line1\nLINE2\nline3\n", *got)
}

func TestReconstruct_LatestEqualsAtLastIndex(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", "a"),
		editOp("2026-01-30T10:00:11.000Z", "a", "b", nil),
		writeOp("2026-01-30T10:00:12.000Z", "c"),
	}}
	latest := ReconstructLatest(f)
	at := ReconstructAt(f, len(f.Operations)-1)
	require.NotNil(t, latest)
	require.NotNil(t, at)
	assert.Equal(t, *latest, *at)
}

func TestReconstruct_FullReadOverridesEarlierState(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", "completely different"),
		fullReadOp("2026-01-30T10:00:11.000Z", "snapshot\ncontent\nhere"),
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "snapshot\ncontent\nhere", *got)
}

func TestReconstruct_EditRebasesOntoOriginalFile(t *testing.T) {
	t.Parallel()

	// The running state is stale; original_file is authoritative.
	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", "stale content"),
		editOp("2026-01-30T10:00:11.000Z", "fresh", "FRESH", strPtr("fresh content")),
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "FRESH content", *got)

	// Content immediately prior to the edit's effect equals original_file.
	prior := ReconstructAt(f, 0)
	require.NotNil(t, prior)
	assert.Equal(t, "stale content", *prior)
}

func TestReconstruct_PartialReadSplicing(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		partialReadOp("2026-01-30T10:00:10.000Z", "C\nD", 3, 2, 5),
		partialReadOp("2026-01-30T10:00:11.000Z", "A\nB", 1, 2, 5),
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "A\nB\nC\nD\n", *got)
}

func TestReconstruct_PartialReadGrowsUnknownBaseline(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		partialReadOp("2026-01-30T10:00:10.000Z", "C\nD", 3, 2, 5),
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "\n\nC\nD\n", *got)
}

func TestSpliceRead_Idempotent(t *testing.T) {
	t.Parallel()

	once := spliceRead(nil, "C\nD", intPtr(3), intPtr(5))
	twice := spliceRead(&once, "C\nD", intPtr(3), intPtr(5))
	assert.Equal(t, once, twice)
}

func TestSpliceRead_NoMetadataFallsBackToOffset(t *testing.T) {
	t.Parallel()

	op := &Operation{
		Kind: KindRead, Path: "/f", Timestamp: "t", SessionID: "s",
		Content: strPtr("X"), ReadOffset: intPtr(2), ReadLimit: intPtr(1),
	}
	f := &File{Path: "/f", Operations: []*Operation{op}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "\nX", *got)
}

func TestReconstruct_ErroredOpsNeverMutateState(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", "keep me"),
		{
			Kind: KindWriteCreate, Path: "/f", Timestamp: "2026-01-30T10:00:11.000Z",
			SessionID: "s1", Content: strPtr("clobber"), IsError: true,
		},
		{
			Kind: KindEdit, Path: "/f", Timestamp: "2026-01-30T10:00:12.000Z", SessionID: "s1",
			OldString: strPtr("keep"), NewString: strPtr("lose"), IsError: true,
		},
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "keep me", *got)
}

func TestReconstruct_FileHistorySnapshots(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		{Kind: KindFileHistory, Path: "/f", Timestamp: "t1", SessionID: "s1", Content: strPtr("backup state")},
		editOp("t2", "backup", "restored", nil),
	}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "restored state", *got)
}

func TestApplyEdit(t *testing.T) {
	t.Parallel()

	t.Run("first_occurrence_only", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "y x x", ApplyEdit("x x x", "x", "y", false))
	})

	t.Run("replace_all", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "y y y", ApplyEdit("x x x", "x", "y", true))
	})

	t.Run("empty_old_is_identity", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "abc", ApplyEdit("abc", "", "zzz", false))
	})

	t.Run("empty_new_deletes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "ac", ApplyEdit("abc", "b", "", false))
	})
}

func TestReconstructAtTimestamp(t *testing.T) {
	t.Parallel()

	f := &File{Path: "/f", Operations: []*Operation{
		writeOp("2026-01-30T10:00:10.000Z", "A"),
		writeOp("2026-01-30T10:00:20.000Z", "B"),
		writeOp("2026-01-30T10:00:30.000Z", "C"),
	}}

	t.Run("cutoff_between_ops", func(t *testing.T) {
		t.Parallel()
		got := ReconstructAtTimestamp(f, "2026-01-30T10:00:15.000Z")
		require.NotNil(t, got)
		assert.Equal(t, "A", *got)
	})

	t.Run("cutoff_exactly_on_op_is_inclusive", func(t *testing.T) {
		t.Parallel()
		got := ReconstructAtTimestamp(f, "2026-01-30T10:00:20.000Z")
		require.NotNil(t, got)
		assert.Equal(t, "B", *got)
	})

	t.Run("cutoff_before_everything_is_absent", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, ReconstructAtTimestamp(f, "2026-01-30T10:00:05.000Z"))
	})

	t.Run("cutoff_after_everything_is_latest", func(t *testing.T) {
		t.Parallel()
		got := ReconstructAtTimestamp(f, "2026-01-30T11:00:00.000Z")
		require.NotNil(t, got)
		assert.Equal(t, "C", *got)
	})

	t.Run("matches_index_replay_for_rising_cutoffs", func(t *testing.T) {
		t.Parallel()
		cutoffs := []string{
			"2026-01-30T10:00:10.000Z",
			"2026-01-30T10:00:25.000Z",
			"2026-01-30T10:00:30.000Z",
		}
		for i, c := range cutoffs {
			got := ReconstructAtTimestamp(f, c)
			want := ReconstructAt(f, i)
			require.NotNil(t, got, "cutoff %s", c)
			require.NotNil(t, want)
			assert.Equal(t, *want, *got, "cutoff %s", c)
		}
	})
}

func TestReconstruct_EmptyTimelineAndEmptyContent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ReconstructLatest(&File{Path: "/f"}))

	// An empty string is real content, distinct from absent.
	f := &File{Path: "/f", Operations: []*Operation{writeOp("t", "")}}
	got := ReconstructLatest(f)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)
}
