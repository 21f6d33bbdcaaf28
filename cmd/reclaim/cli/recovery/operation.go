// Package recovery is the engine that turns session transcripts into
// recoverable file content. It scans transcript trees into per-file operation
// timelines, replays them deterministically to reconstruct content at any
// point, and hosts the injection-stripping and time-bounded views over the
// resulting index.
package recovery

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Kind identifies the type of a file operation.
type Kind string

const (
	KindWriteCreate Kind = "write_create"
	KindWriteUpdate Kind = "write_update"
	KindEdit        Kind = "edit"
	KindRead        Kind = "read"
	KindFileHistory Kind = "file_history"
)

// Operation is a single event on a single absolute path, extracted from a
// transcript. Optional textual fields are pointers: an empty string is
// legitimate content (empty files, cleared buffers) and must stay distinct
// from "unknown".
type Operation struct {
	Kind       Kind
	Path       string // always absolute
	Timestamp  string // UTC ISO 8601, lexicographically comparable
	SessionID  string
	LineNumber int // 1-indexed transcript line, intra-session tiebreak
	ToolUseID  string
	IsSubagent bool

	// Payload, kind-dependent.
	Content      *string // Write result, Read content, file-history backup
	OriginalFile *string // authoritative pre-Edit file contents
	OldString    *string
	NewString    *string
	ReplaceAll   bool
	ReadOffset     *int // requested window (1-indexed offset, count)
	ReadLimit      *int
	ReadStartLine  *int // observed window from the tool result
	ReadNumLines   *int
	ReadTotalLines *int

	IsError      bool
	ErrorMessage string

	// SourcePath is set by the symlink merge when this operation reached the
	// file through an alias path.
	SourcePath string

	// ClientVersion is the assistant client version recorded on the
	// transcript entry, when present.
	ClientVersion string
}

// IsFullRead reports whether a Read covers the whole file. When the tool
// result carried window metadata that decides; otherwise a Read with neither
// offset nor limit requested is full.
func (op *Operation) IsFullRead() bool {
	if op.Kind != KindRead {
		return false
	}
	if op.ReadStartLine != nil {
		return *op.ReadStartLine == 1 &&
			op.ReadNumLines != nil && op.ReadTotalLines != nil &&
			*op.ReadNumLines == *op.ReadTotalLines
	}
	return op.ReadOffset == nil && op.ReadLimit == nil
}

// File is the timeline of every operation that targeted one absolute path.
type File struct {
	Path       string
	Operations []*Operation
}

// Index maps absolute paths to their timelines.
type Index map[string]*File

// LatestTimestamp returns the maximum operation timestamp, or "" for an
// empty timeline.
func (f *File) LatestTimestamp() string {
	latest := ""
	for _, op := range f.Operations {
		if op.Timestamp > latest {
			latest = op.Timestamp
		}
	}
	return latest
}

// OperationCount returns the timeline size.
func (f *File) OperationCount() int {
	return len(f.Operations)
}

// HasFullContent reports whether full recovery is possible: the timeline
// holds a Write, a file-history snapshot, or a full Read, rather than only
// Edits and partial Reads.
func (f *File) HasFullContent() bool {
	for _, op := range f.Operations {
		switch op.Kind {
		case KindWriteCreate, KindWriteUpdate, KindFileHistory:
			return true
		case KindRead:
			if op.IsFullRead() {
				return true
			}
		}
	}
	return false
}

// OpTypeSummary renders a short count summary, e.g. "3 writes, 5 edits, 2 reads".
func (f *File) OpTypeSummary() string {
	counts := map[string]int{}
	for _, op := range f.Operations {
		key, _, _ := strings.Cut(string(op.Kind), "_")
		counts[key]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		n := counts[k]
		plural := ""
		if n != 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s%s", n, k, plural))
	}
	return strings.Join(parts, ", ")
}

// ClientVersions returns the lowest and highest assistant client versions
// observed on the timeline, semver-compared. Both are "" when no operation
// recorded a version.
func (f *File) ClientVersions() (lowest, highest string) {
	for _, op := range f.Operations {
		v := op.ClientVersion
		if v == "" || !semver.IsValid("v"+v) {
			continue
		}
		if lowest == "" || semver.Compare("v"+v, "v"+lowest) < 0 {
			lowest = v
		}
		if highest == "" || semver.Compare("v"+v, "v"+highest) > 0 {
			highest = v
		}
	}
	return lowest, highest
}

// Paths returns the index's paths sorted lexicographically.
func (idx Index) Paths() []string {
	out := make([]string, 0, len(idx))
	for p := range idx {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// sortOperations orders a timeline by (timestamp, session_id, line_number).
// The sort is stable so identical keys keep aggregation order.
func sortOperations(ops []*Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.LineNumber < b.LineNumber
	})
}

func strPtr(s string) *string { return &s }
