package recovery

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffVersions renders a line-oriented diff between two reconstructed
// versions of a file, "-"/"+" prefixed, for display in the detail view.
func DiffVersions(before, after string) string {
	dmp := diffmatchpatch.New()
	beforeRunes, afterRunes, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(beforeRunes, afterRunes, false), lineArray)

	var b strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitKeepingTrailing(d.Text) {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DiffBetweenOps reconstructs the file at two timeline indices and diffs the
// results. Unknown content on either side is treated as empty.
func DiffBetweenOps(f *File, beforeIndex, afterIndex int) string {
	before := ReconstructAt(f, beforeIndex)
	after := ReconstructAt(f, afterIndex)
	return DiffVersions(deref(before), deref(after))
}

// splitKeepingTrailing splits a diff chunk into lines, dropping only the
// empty remainder after a trailing newline.
func splitKeepingTrailing(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
