package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/spf13/cobra"

	"github.com/reclaimio/cli/cmd/reclaim/cli/logging"
	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
)

// watchDebounce batches the bursts of writes a flushing transcript produces.
const watchDebounce = 500 * time.Millisecond

func newWatchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the transcript directory and report newly recoverable files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ctx := logging.WithComponent(cmd.Context(), "watch")

			projectsDir := filepath.Join(opts.claudeDir, "projects")
			if _, err := os.Stat(projectsDir); err != nil {
				return fmt.Errorf("transcript directory not found: %s", projectsDir)
			}

			index, err := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			known := snapshotCounts(index)
			fmt.Fprintf(out, "Watching %s (%d recoverable files). Ctrl-C to stop.\n", projectsDir, len(index))

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer watcher.Close()

			if err := watchTree(watcher, projectsDir); err != nil {
				return err
			}

			var timer *time.Timer
			rescan := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					// New session directories need their own watches.
					if event.Op&fsnotify.Create != 0 {
						if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
							_ = watchTree(watcher, event.Name)
						}
					}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(watchDebounce, func() {
						select {
						case rescan <- struct{}{}:
						default:
						}
					})

				case watchErr, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logging.Warn(ctx, "watch error", "error", watchErr)

				case <-rescan:
					fresh, scanErr := scanIndex(cmd.Context(), opts.claudeDir, cmd.ErrOrStderr())
					if scanErr != nil {
						logging.Warn(ctx, "rescan failed", "error", scanErr)
						continue
					}
					reportChanges(out, known, fresh)
					known = snapshotCounts(fresh)
				}
			}
		},
	}
	return cmd
}

// watchTree registers the watcher on dir and every directory below it.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return watcher.Add(osPathname)
			}
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
}

func snapshotCounts(index recovery.Index) map[string]int {
	counts := make(map[string]int, len(index))
	for p, f := range index {
		counts[p] = f.OperationCount()
	}
	return counts
}

// reportChanges prints files that are new or gained operations since the
// previous scan.
func reportChanges(out io.Writer, known map[string]int, fresh recovery.Index) {
	now := time.Now().Format("15:04:05")
	for _, p := range fresh.Paths() {
		f := fresh[p]
		prev, existed := known[p]
		switch {
		case !existed:
			fmt.Fprintf(out, "[%s] new: %s (%s)\n", now, p, f.OpTypeSummary())
		case f.OperationCount() > prev:
			fmt.Fprintf(out, "[%s] updated: %s (+%d ops)\n", now, p, f.OperationCount()-prev)
		}
	}
}
