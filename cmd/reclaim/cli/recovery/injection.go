package recovery

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultInjectionThreshold is the fraction of Read-bearing files a trailing
// block must appear in before it is reported as injected. Chosen empirically;
// tune per corpus.
const DefaultInjectionThreshold = 0.20

// InjectedPattern is a trailing block that recurs across Read outputs and is
// therefore assumed to have been appended by the client, not the file.
type InjectedPattern struct {
	PatternID       string // e.g. "trailing-suffix-1"
	Content         string
	AffectedOpCount int // Read ops containing the block
	AffectedFiles   int // distinct files containing the block
	Sample          string
	DetectionMethod string // "threshold-suffix"
}

// extractTrailingBlock returns the final blank-line-separated block of
// content. Returns "" when the content is a single block (nothing trailing
// to separate); a file that is itself one block is not an injection candidate.
func extractTrailingBlock(content string) string {
	lines := strings.Split(strings.TrimRight(content, " \t\r\n"), "\n")

	end := len(lines) - 1
	for end >= 0 && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < 0 {
		return ""
	}

	start := end
	for start > 0 && strings.TrimSpace(lines[start-1]) != "" {
		start--
	}
	if start == 0 {
		return ""
	}

	return strings.TrimSpace(strings.Join(lines[start:end+1], "\n"))
}

// DetectInjected tallies trailing blocks across every Read operation in the
// index and reports those appearing in at least threshold × (files with
// Reads) distinct files, ordered by descending file count.
func DetectInjected(index Index, threshold float64) []InjectedPattern {
	fileCount := map[string]int{}
	opCount := map[string]int{}
	filesWithReads := 0

	for _, path := range index.Paths() {
		f := index[path]
		seenInFile := map[string]bool{}
		hasRead := false
		for _, op := range f.Operations {
			if op.Kind != KindRead || op.Content == nil {
				continue
			}
			hasRead = true
			block := extractTrailingBlock(*op.Content)
			if block == "" {
				continue
			}
			opCount[block]++
			if !seenInFile[block] {
				seenInFile[block] = true
				fileCount[block]++
			}
		}
		if hasRead {
			filesWithReads++
		}
	}

	if filesWithReads == 0 {
		return nil
	}
	minFiles := int(threshold * float64(filesWithReads))

	blocks := make([]string, 0, len(fileCount))
	for b := range fileCount {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		if fileCount[blocks[i]] != fileCount[blocks[j]] {
			return fileCount[blocks[i]] > fileCount[blocks[j]]
		}
		return blocks[i] < blocks[j]
	})

	var patterns []InjectedPattern
	for _, b := range blocks {
		if fileCount[b] < minFiles {
			break
		}
		sample := b
		if len(sample) > 120 {
			sample = sample[:120] + "..."
		}
		patterns = append(patterns, InjectedPattern{
			PatternID:       fmt.Sprintf("trailing-suffix-%d", len(patterns)+1),
			Content:         b,
			AffectedOpCount: opCount[b],
			AffectedFiles:   fileCount[b],
			Sample:          sample,
			DetectionMethod: "threshold-suffix",
		})
	}
	return patterns
}

// StripInjected removes reported patterns from every Read operation whose
// trailing block matches one. Content is truncated at the last occurrence of
// the block and right-trimmed, in place. Returns the number of operations
// modified.
func StripInjected(index Index, patterns []InjectedPattern) int {
	if len(patterns) == 0 {
		return 0
	}
	known := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		known[p.Content] = true
	}

	modified := 0
	for _, f := range index {
		for _, op := range f.Operations {
			if op.Kind != KindRead || op.Content == nil || *op.Content == "" {
				continue
			}
			block := extractTrailingBlock(*op.Content)
			if block == "" || !known[block] {
				continue
			}
			idx := strings.LastIndex(*op.Content, block)
			if idx < 0 {
				continue
			}
			op.Content = strPtr(strings.TrimRight((*op.Content)[:idx], " \t\r\n"))
			modified++
		}
	}
	return modified
}
