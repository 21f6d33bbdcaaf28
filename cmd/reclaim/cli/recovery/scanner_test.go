package recovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTranscript writes a session transcript under root/projects/<slug>/.
func writeTranscript(t *testing.T, root, slug, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, "projects", slug)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDiscoverTranscripts(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	writeTranscript(t, root, "-home-user-proj", "aaaa-bbbb.jsonl", "")
	writeTranscript(t, root, "-home-user-proj", "aaaa-bbbb.jsonl.backup.2026-01-30", "")
	writeTranscript(t, root, "-home-user-proj", "notes.txt", "")

	subDir := filepath.Join(root, "projects", "-home-user-proj", "aaaa-bbbb", "subagents")
	require.NoError(t, os.MkdirAll(subDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "agent-1f3c.jsonl"), nil, 0o600))

	found := DiscoverTranscripts(root)
	assert.Len(t, found, 3)

	assert.Empty(t, DiscoverTranscripts(filepath.Join(root, "does-not-exist")))
}

func TestSessionIDExtraction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "aaaa-bbbb", sessionIDFromPath("/r/projects/slug/aaaa-bbbb.jsonl"))
	assert.Equal(t, "aaaa-bbbb", sessionIDFromPath("/r/projects/slug/aaaa-bbbb.jsonl.backup.2026-01-30T10"))
	assert.Equal(t, "cccc-dddd", sessionIDFromPath("/r/projects/slug/cccc-dddd/subagents/agent-1f3c.jsonl"))

	assert.False(t, isSubagentPath("/r/projects/slug/aaaa-bbbb.jsonl"))
	assert.True(t, isSubagentPath("/r/projects/slug/cccc-dddd/subagents/agent-1f3c.jsonl"))
}

func TestStripReadLineNumbers(t *testing.T) {
	t.Parallel()

	in := "     1→first line\n    12→second line\nplain line"
	assert.Equal(t, "first line\nsecond line\nplain line", StripReadLineNumbers(in))
}

func TestScanSession_WriteEditRead(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	content := `{"type":"assistant","timestamp":"2026-01-30T10:00:10.000Z","version":"1.0.40","cwd":"/home/u/proj","message":{"content":[{"type":"tool_use","id":"tu1","name":"Write","input":{"file_path":"/home/u/proj/a.txt","content":"draft"}}]}}
{"type":"user","timestamp":"2026-01-30T10:00:11.000Z","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"ok"}]},"toolUseResult":{"type":"create","filePath":"/home/u/proj/a.txt","content":"line1\nline2\nline3\n"}}
{"type":"assistant","timestamp":"2026-01-30T10:00:12.000Z","version":"1.0.40","message":{"content":[{"type":"tool_use","id":"tu2","name":"Edit","input":{"file_path":"/home/u/proj/a.txt","old_string":"line2","new_string":"LINE2"}}]}}
{"type":"user","timestamp":"2026-01-30T10:00:13.000Z","message":{"content":[{"type":"tool_result","tool_use_id":"tu2","content":"ok"}]},"toolUseResult":{"filePath":"/home/u/proj/a.txt","oldString":"line2","newString":"LINE2","originalFile":"line1\nline2\nline3\n"}}
{"type":"assistant","timestamp":"2026-01-30T10:00:14.000Z","message":{"content":[{"type":"tool_use","id":"tu3","name":"Read","input":{"file_path":"/home/u/proj/a.txt"}}]}}
{"type":"user","timestamp":"2026-01-30T10:00:15.000Z","message":{"content":[{"type":"tool_result","tool_use_id":"tu3","content":"     1→line1\n     2→LINE2\n     3→line3"}]},"toolUseResult":{"type":"text","file":{"filePath":"/home/u/proj/a.txt","startLine":1,"numLines":3,"totalLines":3}}}
`
	path := writeTranscript(t, root, "-home-u-proj", "sess-1.jsonl", content)

	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	w := ops[0]
	assert.Equal(t, KindWriteCreate, w.Kind)
	assert.Equal(t, "/home/u/proj/a.txt", w.Path)
	assert.Equal(t, "sess-1", w.SessionID)
	assert.Equal(t, 1, w.LineNumber)
	assert.Equal(t, "1.0.40", w.ClientVersion)
	require.NotNil(t, w.Content)
	assert.Equal(t, "line1\nline2\nline3\n", *w.Content, "result content replaces input fallback")

	e := ops[1]
	assert.Equal(t, KindEdit, e.Kind)
	require.NotNil(t, e.OriginalFile)
	assert.Equal(t, "line1\nline2\nline3\n", *e.OriginalFile)

	r := ops[2]
	assert.Equal(t, KindRead, r.Kind)
	require.NotNil(t, r.Content)
	assert.Equal(t, "line1\nLINE2\nline3", *r.Content, "line-number arrows stripped")
	require.NotNil(t, r.ReadStartLine)
	assert.Equal(t, 1, *r.ReadStartLine)
	assert.True(t, r.IsFullRead())
}

func TestScanSession_WriteUpdateRefinement(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	content := `{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Write","input":{"file_path":"/a.txt","content":"new"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"ok"}]},"toolUseResult":{"type":"update","filePath":"/a.txt","content":"new","originalFile":"old"}}
`
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, KindWriteUpdate, ops[0].Kind)
	require.NotNil(t, ops[0].OriginalFile)
	assert.Equal(t, "old", *ops[0].OriginalFile)
}

func TestScanSession_NoopEditDropped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	// old_string absent from the written content: provably a no-op.
	content := `{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Write","input":{"file_path":"/x","content":"x"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"ok"}]},"toolUseResult":{"type":"create","filePath":"/x","content":"x"}}
{"type":"assistant","timestamp":"t3","message":{"content":[{"type":"tool_use","id":"tu2","name":"Edit","input":{"file_path":"/x","old_string":"y","new_string":"z"}}]}}
{"type":"user","timestamp":"t4","message":{"content":[{"type":"tool_result","tool_use_id":"tu2","content":"ok"}]},"toolUseResult":{"filePath":"/x","oldString":"y","newString":"z","originalFile":"x"}}
`
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, KindWriteCreate, ops[0].Kind)
}

func TestScanSession_ErroredEditKept(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	content := `{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Edit","input":{"file_path":"/x","old_string":"a","new_string":"b"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","is_error":true,"content":"<tool_use_error>String not found in file</tool_use_error>"}]}}
`
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.True(t, ops[0].IsError)
	assert.Equal(t, "String not found in file", ops[0].ErrorMessage)
}

func TestScanSession_TopLevelErrorString(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	content := `{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Read","input":{"file_path":"/gone"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"x"}]},"toolUseResult":"Error: file does not exist"}
`
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.True(t, ops[0].IsError)
	assert.Equal(t, "file does not exist", ops[0].ErrorMessage)
}

func TestScanSession_ProgressAndMalformedLinesSkipped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	content := `{"type":"progress","huge":"payload"}
this line is not json at all
{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Write","input":{"file_path":"/ok","content":"fine"}}]}}
`
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, 3, ops[0].LineNumber, "line numbers count skipped lines")
}

func TestScanSession_FileHistorySnapshot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	histDir := filepath.Join(root, "file-history", "sess-1")
	require.NoError(t, os.MkdirAll(histDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(histDir, "bk1"), []byte("backup content"), 0o600))

	content := `{"type":"user","timestamp":"t0","cwd":"/home/u/proj","message":{"content":"hi"}}
{"type":"file-history-snapshot","timestamp":"2026-01-30T10:00:00.000Z","snapshot":{"trackedFileBackups":{"src/main.go":{"backupFileName":"bk1","backupTime":"2026-01-30T09:59:00.000Z"},"missing.go":{"backupFileName":"nope","backupTime":"t"}}}}
`
	path := writeTranscript(t, root, "p", "sess-1.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1, "unreadable backups are skipped")

	op := ops[0]
	assert.Equal(t, KindFileHistory, op.Kind)
	assert.Equal(t, "/home/u/proj/src/main.go", op.Path, "relative path resolved against session cwd")
	assert.Equal(t, "2026-01-30T09:59:00.000Z", op.Timestamp)
	require.NotNil(t, op.Content)
	assert.Equal(t, "backup content", *op.Content)
}

func TestScanSession_PersistedOutputPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	persisted := filepath.Join(root, "full-output.txt")
	require.NoError(t, os.WriteFile(persisted, []byte("the full untruncated content"), 0o600))

	content := fmt.Sprintf(`{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"tu1","name":"Read","input":{"file_path":"/big"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"<persisted-output>"}]},"toolUseResult":{"type":"text","persistedOutputPath":%q,"file":{"filePath":"/big","startLine":1,"numLines":1,"totalLines":1}}}
`, persisted)
	path := writeTranscript(t, root, "p", "s.jsonl", content)
	ops, err := ScanSession(path, root)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].Content)
	assert.Equal(t, "the full untruncated content", *ops[0].Content)
}

func TestScanAll_AggregatesSortsAndReportsProgress(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	writeTranscript(t, root, "p", "sess-b.jsonl", `{"type":"assistant","timestamp":"2026-01-30T10:00:20.000Z","message":{"content":[{"type":"tool_use","id":"t1","name":"Write","input":{"file_path":"/shared.txt","content":"later"}}]}}
`)
	writeTranscript(t, root, "p", "sess-a.jsonl", `{"type":"assistant","timestamp":"2026-01-30T10:00:10.000Z","message":{"content":[{"type":"tool_use","id":"t1","name":"Write","input":{"file_path":"/shared.txt","content":"earlier"}}]}}
{"type":"assistant","timestamp":"2026-01-30T10:00:11.000Z","message":{"content":[{"type":"tool_use","id":"t2","name":"Write","input":{"file_path":"/other.txt","content":"x"}}]}}
`)

	var calls int
	index, err := ScanAll(context.Background(), ScanOptions{
		Root:     root,
		Progress: func(completed, total int) { calls++; assert.Equal(t, 2, total) },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, index, 2)

	shared := index["/shared.txt"]
	require.NotNil(t, shared)
	require.Len(t, shared.Operations, 2)
	assert.Equal(t, "earlier", *shared.Operations[0].Content)
	assert.Equal(t, "later", *shared.Operations[1].Content)
	assert.Equal(t, "2026-01-30T10:00:20.000Z", shared.LatestTimestamp())
}

func TestScanAll_ReplayLevelNoopEditDropped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	// No original_file and the running reconstructed content already lacks
	// old_string: only the replay-level pass can prove this edit a no-op.
	writeTranscript(t, root, "p", "s.jsonl", `{"type":"assistant","timestamp":"t1","message":{"content":[{"type":"tool_use","id":"t1","name":"Write","input":{"file_path":"/f","content":"b"}}]}}
{"type":"user","timestamp":"t2","message":{"content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]},"toolUseResult":{"type":"create","filePath":"/f","content":"b"}}
{"type":"assistant","timestamp":"t3","message":{"content":[{"type":"tool_use","id":"t2","name":"Edit","input":{"file_path":"/f","old_string":"a","new_string":"b"}}]}}
`)

	index, err := ScanAll(context.Background(), ScanOptions{Root: root})
	require.NoError(t, err)
	f := index["/f"]
	require.NotNil(t, f)
	assert.Equal(t, 1, f.OperationCount(), "edit with no effect on running content is dropped")
}
