package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/paths"
	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
	"github.com/reclaimio/cli/cmd/reclaim/cli/settings"
	"github.com/reclaimio/cli/cmd/reclaim/cli/symlinks"
	"github.com/reclaimio/cli/cmd/reclaim/cli/telemetry"
	"github.com/reclaimio/cli/cmd/reclaim/cli/tui"
)

type tuiOptions struct {
	outputDir            string
	symlinkFile          string
	noSymlinkDetection   bool
	noInjectionDetection bool
}

func newTUIOptions() *tuiOptions { return &tuiOptions{} }

func newTUICmd(opts *rootOptions) *cobra.Command {
	tuiOpts := newTUIOptions()

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts, tuiOpts)
		},
	}

	cmd.Flags().StringVarP(&tuiOpts.outputDir, "output", "o", "", "Output directory for recovered files (default: recovered-{timestamp})")
	cmd.Flags().StringVar(&tuiOpts.symlinkFile, "symlink-file", "", "Path to a YAML file with pre-defined symlink mappings")
	cmd.Flags().BoolVar(&tuiOpts.noSymlinkDetection, "no-symlink-detection", false, "Disable filesystem-based symlink detection")
	cmd.Flags().BoolVar(&tuiOpts.noInjectionDetection, "no-injection-detection", false, "Disable detection and removal of injected content in Read operations")
	return cmd
}

func runTUI(cmd *cobra.Command, opts *rootOptions, tuiOpts *tuiOptions) error {
	out := cmd.OutOrStdout()

	s, _ := settings.Load()
	if s == nil {
		s = &settings.Settings{}
	}
	tm := telemetry.New(s.Telemetry != nil && *s.Telemetry)
	defer tm.Close()

	if tuiOpts.outputDir == "" {
		tuiOpts.outputDir = paths.DefaultOutputDir(time.Now())
	}

	index, err := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d recoverable files. Launching browser...\n", len(index))
	tm.Capture("tui_launched", map[string]any{"files": len(index)})

	threshold := recovery.DefaultInjectionThreshold
	if s.InjectionThreshold != nil {
		threshold = *s.InjectionThreshold
	}
	var patterns []recovery.InjectedPattern
	if !tuiOpts.noInjectionDetection {
		patterns = recovery.DetectInjected(index, threshold)
		if len(patterns) > 0 {
			totalOps := 0
			for _, p := range patterns {
				totalOps += p.AffectedOpCount
			}
			fmt.Fprintf(out, "Detected injected content in %d Read operations\n", totalOps)
		}
	}

	var groups []symlinks.Group
	if tuiOpts.symlinkFile != "" {
		if _, statErr := os.Stat(tuiOpts.symlinkFile); statErr == nil {
			groups, err = symlinks.Load(tuiOpts.symlinkFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Loaded %d symlink groups from %s\n", len(groups), tuiOpts.symlinkFile)
		}
	} else if !tuiOpts.noSymlinkDetection {
		groups = symlinks.DetectFS(index.Paths())
		if len(groups) > 0 {
			fmt.Fprintf(out, "Detected %d symlink groups\n", len(groups))
		}
	}

	return tui.Run(tui.Options{
		Index:             index,
		SymlinkGroups:     groups,
		InjectionPatterns: patterns,
		OutputDir:         tuiOpts.outputDir,
	})
}
