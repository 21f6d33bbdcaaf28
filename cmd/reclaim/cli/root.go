// Package cli implements the reclaim command-line surface: scanning session
// transcripts, listing and extracting recoverable files, symlink mapping,
// and the interactive browser.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/logging"
	"github.com/reclaimio/cli/cmd/reclaim/cli/paths"
	"github.com/reclaimio/cli/cmd/reclaim/cli/settings"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	claudeDir string
	logLevel  string
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var silent *SilentError
		if !errors.As(err, &silent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "reclaim",
		Short:   "Recover files created and modified by your AI coding assistant",
		Long:    "Reclaim reconstructs file contents from the session transcripts your AI coding assistant keeps on disk, and lets you browse, time-travel, and extract them.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := settings.Load()
			if err != nil {
				// Settings problems must not block recovery; log and continue
				// with defaults.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				s = &settings.Settings{}
			}

			level := s.LogLevel
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logging.Init(level, cmd.ErrOrStderr())

			if !cmd.Flags().Changed("claude-dir") && s.ClaudeDir != "" {
				opts.claudeDir = s.ClaudeDir
			}
			abs, err := paths.AbsPath(opts.claudeDir)
			if err != nil {
				return err
			}
			opts.claudeDir = abs
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation launches the interactive browser.
			return runTUI(cmd, opts, newTUIOptions())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.claudeDir, "claude-dir", "c", paths.DefaultClaudeDir(), "Path to the assistant's user config directory")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log verbosity (debug, info, warn, error)")

	cmd.AddCommand(newListFilesCmd(opts))
	cmd.AddCommand(newExtractFilesCmd(opts))
	cmd.AddCommand(newIdentifySymlinksCmd(opts))
	cmd.AddCommand(newTUICmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newDemoCmd())

	return cmd
}
