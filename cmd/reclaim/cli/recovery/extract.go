package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFailure reports a recovered file that could not be materialized under
// the output directory.
type ReadFailure struct {
	Path string
	Err  error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("writing recovered file %s: %v", e.Path, e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// ExtractResult summarizes an extraction pass.
type ExtractResult struct {
	Extracted int
	Skipped   int // no content could be reconstructed
	Failed    int
	Failures  []error
}

// Extract reconstructs every file in the index and writes it under outputDir,
// mirroring the absolute path with the leading separator stripped. When
// cutoff is non-empty each file is reconstructed as of that instant instead
// of latest. Per-file failures are collected, never fatal.
func Extract(index Index, outputDir, cutoff string, progress ProgressFunc) ExtractResult {
	var res ExtractResult
	paths := index.Paths()

	for i, path := range paths {
		if progress != nil {
			progress(i+1, len(paths))
		}

		f := index[path]
		var content *string
		if cutoff != "" {
			content = ReconstructAtTimestamp(f, cutoff)
		} else {
			content = ReconstructLatest(f)
		}
		if content == nil {
			res.Skipped++
			continue
		}

		rel := strings.TrimLeft(filepath.ToSlash(path), "/")
		outPath := filepath.Join(outputDir, filepath.FromSlash(rel))

		if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, &ReadFailure{Path: path, Err: err})
			continue
		}
		//nolint:gosec // recovered files are user content, not secrets
		if err := os.WriteFile(outPath, []byte(*content), 0o644); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, &ReadFailure{Path: path, Err: err})
			continue
		}
		res.Extracted++
	}
	return res
}
