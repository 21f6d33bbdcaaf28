package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/symlinks"
)

func newIdentifySymlinksCmd(opts *rootOptions) *cobra.Command {
	var output string
	var noSymlinkDetection bool

	cmd := &cobra.Command{
		Use:   "identify-symlinks",
		Short: "Detect symlinked file paths and write a YAML mapping file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			styles := newOutputStyles(out)

			index, err := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			filePaths := index.Paths()
			fmt.Fprintf(out, "Analyzing %d file paths for symlinks...\n", len(filePaths))

			var groups []symlinks.Group
			if !noSymlinkDetection {
				groups = symlinks.DetectFS(filePaths)
				fmt.Fprintf(out, "  Found %d symlink groups via filesystem\n", len(groups))
			}

			if len(groups) == 0 {
				fmt.Fprintln(out, styles.render(styles.yellow, "No symlink mappings detected."))
				return nil
			}

			fmt.Fprintln(out, styles.render(styles.bold, fmt.Sprintf("Symlink Mappings (%d groups)", len(groups))))
			for _, g := range groups {
				fmt.Fprintf(out, "%s\n", styles.render(styles.cyan, g.Canonical))
				for _, alias := range g.Aliases {
					method := g.DetectionMethods[alias]
					if method == "" {
						method = "?"
					}
					fmt.Fprintf(out, "  %s %s\n", alias, styles.render(styles.green, "["+method+"]"))
				}
			}

			if err := symlinks.Save(groups, output); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSymlink mappings written to %s\n", styles.render(styles.bold, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "./symlinks.yaml", "Output path for the YAML symlink mapping file")
	cmd.Flags().BoolVar(&noSymlinkDetection, "no-symlink-detection", false, "Disable filesystem-based symlink detection")
	return cmd
}
