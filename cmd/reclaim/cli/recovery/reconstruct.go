package recovery

import (
	"sort"
	"strings"
)

// ApplyEdit performs an Edit's string replacement: the first occurrence only,
// or every occurrence when replaceAll is set. An empty oldString leaves the
// content unchanged.
func ApplyEdit(content, oldString, newString string, replaceAll bool) string {
	if oldString == "" {
		return content
	}
	if replaceAll {
		return strings.ReplaceAll(content, oldString, newString)
	}
	return strings.Replace(content, oldString, newString, 1)
}

// spliceRead merges a partial Read's content into a possibly-unknown baseline
// by line-indexed overwrite. startLine is 1-indexed; totalLines, when known,
// sizes the result so the file grows correctly as partial Reads arrive.
func spliceRead(existing *string, segment string, startLine, totalLines *int) string {
	segLines := strings.Split(segment, "\n")

	start := 0
	if startLine != nil {
		start = *startLine - 1
	}
	if start < 0 {
		start = 0
	}

	targetLen := start + len(segLines)
	if totalLines != nil {
		targetLen = *totalLines
	}

	var lines []string
	if existing == nil {
		lines = make([]string, targetLen)
	} else {
		lines = strings.Split(*existing, "\n")
		for len(lines) < targetLen {
			lines = append(lines, "")
		}
	}
	for len(lines) < start+len(segLines) {
		lines = append(lines, "")
	}
	copy(lines[start:start+len(segLines)], segLines)

	return strings.Join(lines, "\n")
}

// readStart returns a partial Read's 1-indexed start line: the observed
// window when the result carried metadata, otherwise the requested offset.
func readStart(op *Operation) *int {
	if op.ReadStartLine != nil {
		return op.ReadStartLine
	}
	return op.ReadOffset
}

// replayStep folds one operation into the reconstruction state. Errored
// operations never mutate state.
func replayStep(content *string, op *Operation) *string {
	if op.IsError {
		return content
	}

	switch op.Kind {
	case KindWriteCreate, KindWriteUpdate:
		return op.Content

	case KindFileHistory:
		if op.Content != nil {
			return op.Content
		}
		return content

	case KindRead:
		if op.Content == nil {
			return content
		}
		if op.IsFullRead() {
			return op.Content
		}
		return strPtr(spliceRead(content, *op.Content, readStart(op), op.ReadTotalLines))

	case KindEdit:
		if op.OriginalFile != nil {
			content = op.OriginalFile
		}
		if content != nil && op.OldString != nil && op.NewString != nil {
			return strPtr(ApplyEdit(*content, *op.OldString, *op.NewString, op.ReplaceAll))
		}
		return content
	}

	return content
}

// ReconstructAt replays the timeline from the beginning through upToIndex
// (inclusive) and returns the file content at that point, or nil when no
// content can be reconstructed.
func ReconstructAt(f *File, upToIndex int) *string {
	if f == nil || len(f.Operations) == 0 || upToIndex < 0 {
		return nil
	}
	if upToIndex >= len(f.Operations) {
		upToIndex = len(f.Operations) - 1
	}

	var content *string
	for _, op := range f.Operations[:upToIndex+1] {
		content = replayStep(content, op)
	}
	return content
}

// ReconstructLatest reconstructs the newest version of the file.
func ReconstructLatest(f *File) *string {
	if f == nil {
		return nil
	}
	return ReconstructAt(f, len(f.Operations)-1)
}

// ReconstructAtTimestamp reconstructs the file as of the cutoff instant:
// it replays up to the last operation with timestamp <= cutoff. Returns nil
// when every operation is after the cutoff. Timestamps are compared as
// strings; the stored format makes that chronological.
func ReconstructAtTimestamp(f *File, cutoff string) *string {
	if f == nil || len(f.Operations) == 0 {
		return nil
	}
	// First index with timestamp > cutoff; the op before it is the replay end.
	n := sort.Search(len(f.Operations), func(i int) bool {
		return f.Operations[i].Timestamp > cutoff
	})
	if n == 0 {
		return nil
	}
	return ReconstructAt(f, n-1)
}
