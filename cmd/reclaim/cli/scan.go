package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/pathfilter"
	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
	"github.com/reclaimio/cli/cmd/reclaim/cli/settings"
	"github.com/reclaimio/cli/cmd/reclaim/cli/timeutil"
)

// scanIndex scans every transcript under claudeDir, rendering a progress
// counter on out when it is a terminal.
func scanIndex(ctx context.Context, claudeDir string, out io.Writer) (recovery.Index, error) {
	workers := 0
	if s, err := settings.Load(); err == nil {
		workers = s.Workers
	}

	styles := newOutputStyles(out)
	progress := func(completed, total int) {
		if styles.colorEnabled {
			fmt.Fprintf(out, "\rScanning sessions... %d/%d", completed, total)
		}
	}

	index, err := recovery.ScanAll(ctx, recovery.ScanOptions{
		Root:     claudeDir,
		Workers:  workers,
		Progress: progress,
	})
	if styles.colorEnabled {
		fmt.Fprint(out, "\r\033[K")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	return index, nil
}

// filterFlags are the path/time filtering flags shared by list-files and
// extract-files.
type filterFlags struct {
	pattern       string
	mode          string
	caseSensitive bool
	ignoreCase    bool
	before        string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.pattern, "filter", "f", "", "Pattern to filter file paths (e.g. '*.go' for glob, 'router' for fuzzy, '\\.py$' for regex)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(pathfilter.ModeGlob), "Filter mode: glob, regex, or fuzzy")
	cmd.Flags().BoolVarP(&f.caseSensitive, "case-sensitive", "s", false, "Force case-sensitive matching (default: smart-case)")
	cmd.Flags().BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Force case-insensitive matching (default: smart-case)")
	cmd.Flags().StringVarP(&f.before, "before", "b", "", "Only include operations at or before this timestamp (e.g. '2026-01-30', '2026-01-30 15:00')")
}

// caseOverride maps the two case flags onto the smart-case override.
func (f *filterFlags) caseOverride() *bool {
	if f.caseSensitive {
		v := true
		return &v
	}
	if f.ignoreCase {
		v := false
		return &v
	}
	return nil
}

// apply narrows the index by pattern and cutoff. Returns the filtered index,
// the surviving paths in match order, and the normalized cutoff ("" when no
// --before was given).
func (f *filterFlags) apply(index recovery.Index) (recovery.Index, []string, string, error) {
	mode, err := pathfilter.ParseMode(f.mode)
	if err != nil {
		return nil, nil, "", err
	}

	ordered, err := pathfilter.Rank(index.Paths(), f.pattern, mode, f.caseOverride())
	if err != nil {
		return nil, nil, "", err
	}

	narrowed := make(recovery.Index, len(ordered))
	for _, p := range ordered {
		narrowed[p] = index[p]
	}

	cutoff := ""
	if f.before != "" {
		cutoff, err = timeutil.Normalize(f.before)
		if err != nil {
			return nil, nil, "", fmt.Errorf("invalid --before timestamp: %w", err)
		}
		narrowed = recovery.FilterByTimestamp(narrowed, cutoff)
		kept := ordered[:0]
		for _, p := range ordered {
			if _, ok := narrowed[p]; ok {
				kept = append(kept, p)
			}
		}
		ordered = kept
	}

	return narrowed, ordered, cutoff, nil
}
