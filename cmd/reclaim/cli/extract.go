package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/logging"
	"github.com/reclaimio/cli/cmd/reclaim/cli/paths"
	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
	"github.com/reclaimio/cli/cmd/reclaim/cli/secrets"
	"github.com/reclaimio/cli/cmd/reclaim/cli/symlinks"
	"github.com/reclaimio/cli/cmd/reclaim/cli/timeutil"
)

func newExtractFilesCmd(opts *rootOptions) *cobra.Command {
	filters := &filterFlags{}
	var outputDir string
	var symlinkFile string
	var noInjectionDetection bool
	var noSecretScan bool
	var gitArchive bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "extract-files",
		Short: "Extract recovered files to disk, preserving directory structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			styles := newOutputStyles(out)
			ctx := logging.WithComponent(cmd.Context(), "extract")

			if outputDir == "" {
				outputDir = paths.DefaultOutputDir(time.Now())
			}

			index, err := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if !noInjectionDetection {
				patterns := recovery.DetectInjected(index, recovery.DefaultInjectionThreshold)
				if len(patterns) > 0 {
					totalOps := 0
					for _, p := range patterns {
						totalOps += p.AffectedOpCount
					}
					fmt.Fprintln(out, styles.render(styles.yellow, fmt.Sprintf(
						"Detected injected content in %d Read operations. Stripping from recovered content.", totalOps)))
					recovery.StripInjected(index, patterns)
				}
			}

			if symlinkFile != "" {
				if _, statErr := os.Stat(symlinkFile); statErr == nil {
					groups, loadErr := symlinks.Load(symlinkFile)
					if loadErr != nil {
						return loadErr
					}
					if len(groups) > 0 {
						fmt.Fprintf(out, "Applying %d symlink mappings for deduplication...\n", len(groups))
						index = symlinks.Merge(index, groups)
					}
				}
			}

			index, _, cutoff, err := filters.apply(index)
			if err != nil {
				return err
			}
			if cutoff != "" {
				fmt.Fprintf(out, "Filtering operations before %s\n", timeutil.FormatLocalConfirmation(cutoff))
			}

			if len(index) == 0 {
				fmt.Fprintln(out, styles.render(styles.yellow, "No files match the filter."))
				return nil
			}

			if !assumeYes && isInteractive() {
				ok, confirmErr := confirmOutputDir(&outputDir, len(index))
				if confirmErr != nil {
					return confirmErr
				}
				if !ok {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if !noSecretScan {
				warnAboutSecrets(cmd, index, cutoff, styles)
			}

			fmt.Fprintf(out, "Reconstructing %d files...\n", len(index))
			res := recovery.Extract(index, outputDir, cutoff, nil)

			fmt.Fprintf(out, "\n%s extracted, %s skipped (no content), %s failed.\n",
				styles.render(styles.green, fmt.Sprintf("%d", res.Extracted)),
				styles.render(styles.yellow, fmt.Sprintf("%d", res.Skipped)),
				styles.render(styles.red, fmt.Sprintf("%d", res.Failed)))
			for _, failure := range res.Failures {
				logging.Warn(ctx, "extraction failure", "error", failure)
			}

			if res.Extracted > 0 {
				abs, absErr := paths.AbsPath(outputDir)
				if absErr == nil {
					fmt.Fprintf(out, "Output directory: %s\n", styles.render(styles.bold, abs))
				}
				if gitArchive {
					if err := commitRecoveredTree(outputDir); err != nil {
						return fmt.Errorf("archiving recovered tree: %w", err)
					}
					fmt.Fprintln(out, "Initialized a git repository and committed the recovered tree.")
				}
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for recovered files (default: recovered-{timestamp})")
	cmd.Flags().StringVar(&symlinkFile, "symlink-file", "", "Path to a YAML file with symlink mappings for deduplication")
	cmd.Flags().BoolVar(&noInjectionDetection, "no-injection-detection", false, "Disable detection and removal of injected content in Read operations")
	cmd.Flags().BoolVar(&noSecretScan, "no-secret-scan", false, "Disable credential scanning of recovered content")
	cmd.Flags().BoolVar(&gitArchive, "git", false, "Initialize a git repository in the output directory and commit the recovered tree")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the interactive output directory confirmation")
	return cmd
}

// confirmOutputDir lets the user adjust and confirm the output directory
// before anything is written.
func confirmOutputDir(outputDir *string, fileCount int) (bool, error) {
	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Description(fmt.Sprintf("%d files will be extracted under this directory.", fileCount)).
				Value(outputDir),
			huh.NewConfirm().
				Title("Extract now?").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return confirmed, nil
}

// warnAboutSecrets reconstructs each file and reports credential findings
// before the content lands on disk. Scanner failures only disable the check.
func warnAboutSecrets(cmd *cobra.Command, index recovery.Index, cutoff string, styles outputStyles) {
	scanner, err := secrets.NewScanner()
	if err != nil {
		logging.Warn(logging.WithComponent(cmd.Context(), "extract"), "secret scanning unavailable", "error", err)
		return
	}

	var findings []secrets.Finding
	for _, path := range index.Paths() {
		f := index[path]
		var content *string
		if cutoff != "" {
			content = recovery.ReconstructAtTimestamp(f, cutoff)
		} else {
			content = recovery.ReconstructLatest(f)
		}
		if content == nil {
			continue
		}
		findings = append(findings, scanner.ScanContent(path, *content)...)
	}

	if len(findings) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.render(styles.yellow, fmt.Sprintf(
		"Warning: %d potential credentials detected in recovered content:", len(findings))))
	const maxShown = 10
	for i, f := range findings {
		if i == maxShown {
			fmt.Fprintf(out, "  ... and %d more\n", len(findings)-maxShown)
			break
		}
		fmt.Fprintf(out, "  %s:%d (%s)\n", f.Path, f.Line, f.RuleID)
	}
}

// commitRecoveredTree turns the output directory into a git repository with
// a single commit holding every recovered file.
func commitRecoveredTree(outputDir string) error {
	repo, err := git.PlainInit(outputDir, false)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			repo, err = git.PlainOpen(outputDir)
		}
		if err != nil {
			return fmt.Errorf("initializing repository: %w", err)
		}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if _, err := wt.Add("."); err != nil {
		return fmt.Errorf("staging recovered files: %w", err)
	}
	_, err = wt.Commit("Recover files from session transcripts", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "reclaim",
			Email: "reclaim@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing recovered files: %w", err)
	}
	return nil
}
