package cli

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
	"github.com/reclaimio/cli/cmd/reclaim/cli/timeutil"
)

func newListFilesCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var csvOut bool
	var noInjectionDetection bool

	cmd := &cobra.Command{
		Use:   "list-files",
		Short: "List all recoverable files with paths and latest modification dates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			styles := newOutputStyles(out)

			index, err := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Warn only; list-files never outputs file content.
			if !noInjectionDetection {
				patterns := recovery.DetectInjected(index, recovery.DefaultInjectionThreshold)
				if len(patterns) > 0 {
					totalOps := 0
					totalFiles := 0
					for _, p := range patterns {
						totalOps += p.AffectedOpCount
						totalFiles += p.AffectedFiles
					}
					fmt.Fprintln(out, styles.render(styles.yellow, fmt.Sprintf(
						"Detected injected content in %d Read operations across %d files. Use extract-files to strip, or --no-injection-detection to suppress this warning.",
						totalOps, totalFiles)))
				}
			}

			index, _, cutoff, err := filters.apply(index)
			if err != nil {
				return err
			}
			if cutoff != "" {
				fmt.Fprintf(out, "Filtering operations before %s\n", timeutil.FormatLocalConfirmation(cutoff))
			}

			paths := index.Paths()
			sort.Strings(paths)

			if csvOut {
				return writeFilesCSV(cmd, index, paths)
			}

			header := fmt.Sprintf("%-17s %6s %5s  %s", "Last Modified", "Ops", "Full", "Path")
			fmt.Fprintln(out, styles.render(styles.bold, header))
			for _, p := range paths {
				f := index[p]
				full := styles.render(styles.red, "no")
				if f.HasFullContent() {
					full = styles.render(styles.green, "yes")
				}
				fmt.Fprintf(out, "%-17s %6d %5s  %s\n",
					lastModified(f), f.OperationCount(), full, p)
			}
			fmt.Fprintf(out, "\n%s recoverable files found.\n", styles.render(styles.bold, strconv.Itoa(len(paths))))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Output in CSV format")
	cmd.Flags().BoolVar(&noInjectionDetection, "no-injection-detection", false, "Disable detection of injected content in Read operations")
	return cmd
}

func lastModified(f *recovery.File) string {
	ts := f.LatestTimestamp()
	if ts == "" {
		return "unknown"
	}
	return timeutil.ToLocal(ts)
}

func writeFilesCSV(cmd *cobra.Command, index recovery.Index, paths []string) error {
	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write([]string{"last_modified", "ops", "full", "path"}); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	for _, p := range paths {
		f := index[p]
		full := "no"
		if f.HasFullContent() {
			full = "yes"
		}
		row := []string{lastModified(f), strconv.Itoa(f.OperationCount()), full, p}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
