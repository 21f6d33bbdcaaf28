package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newDemoCmd generates a synthetic transcript tree so the tool can be tried
// without pointing it at a real assistant config directory.
func newDemoCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a synthetic transcript tree for trying out the tool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = "./reclaim-demo"
			}
			if err := generateDemoData(dir); err != nil {
				return fmt.Errorf("generating demo data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Demo transcript tree written to %s\n", dir)
			fmt.Fprintf(cmd.OutOrStdout(), "Try: reclaim list-files --claude-dir %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory for the demo tree (default: ./reclaim-demo)")
	return cmd
}

type demoEntry map[string]any

func demoTimestamp(base time.Time, offset time.Duration) string {
	return base.Add(offset).UTC().Format("2006-01-02T15:04:05.000Z")
}

func writeJSONL(path string, entries []demoEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // demo output path chosen by the user
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func toolUseEntry(ts, id, name string, input demoEntry, cwd string) demoEntry {
	e := demoEntry{
		"type":      "assistant",
		"timestamp": ts,
		"version":   "1.0.40",
		"message": demoEntry{
			"content": []demoEntry{{
				"type":  "tool_use",
				"id":    id,
				"name":  name,
				"input": input,
			}},
		},
	}
	if cwd != "" {
		e["cwd"] = cwd
	}
	return e
}

func toolResultEntry(ts, id string, blockContent any, result demoEntry) demoEntry {
	e := demoEntry{
		"type":      "user",
		"timestamp": ts,
		"message": demoEntry{
			"content": []demoEntry{{
				"type":        "tool_result",
				"tool_use_id": id,
				"content":     blockContent,
			}},
		},
	}
	if result != nil {
		e["toolUseResult"] = result
	}
	return e
}

// generateDemoData builds a small but representative tree: a main session
// with a write/edit/read chain, a second session touching the same file
// through a symlinked path, a subagent transcript, a file-history backup,
// progress noise, and a malformed line.
func generateDemoData(root string) error {
	base := time.Now().Add(-24 * time.Hour)
	projectDir, err := filepath.Abs(filepath.Join(root, "workspace", "demo-project"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return err
	}

	linkDir := filepath.Join(root, "workspace", "demo-link")
	if _, lerr := os.Lstat(linkDir); os.IsNotExist(lerr) {
		// Best effort: some filesystems forbid symlinks.
		_ = os.Symlink(projectDir, linkDir)
	}

	mainSession := uuid.NewString()
	otherSession := uuid.NewString()
	slug := "-workspace-demo-project"

	appPath := filepath.Join(projectDir, "app.py")
	configPath := filepath.Join(projectDir, "config.yaml")

	appV1 := "def main():\n    print(\"hello\")\n\nif __name__ == \"__main__\":\n    main()\n"
	appV2 := "def main():\n    print(\"hello, world\")\n\nif __name__ == \"__main__\":\n    main()\n"

	mainEntries := []demoEntry{
		{"type": "progress", "timestamp": demoTimestamp(base, 0), "payload": "noise"},
		toolUseEntry(demoTimestamp(base, 1*time.Minute), "tu-1", "Write",
			demoEntry{"file_path": appPath, "content": appV1}, projectDir),
		toolResultEntry(demoTimestamp(base, 1*time.Minute+5*time.Second), "tu-1", "ok",
			demoEntry{"type": "create", "filePath": appPath, "content": appV1}),
		toolUseEntry(demoTimestamp(base, 2*time.Minute), "tu-2", "Edit",
			demoEntry{"file_path": appPath, "old_string": "hello", "new_string": "hello, world"}, ""),
		toolResultEntry(demoTimestamp(base, 2*time.Minute+5*time.Second), "tu-2", "ok",
			demoEntry{"filePath": appPath, "oldString": "hello", "newString": "hello, world", "originalFile": appV1}),
		toolUseEntry(demoTimestamp(base, 3*time.Minute), "tu-3", "Read",
			demoEntry{"file_path": appPath}, ""),
		toolResultEntry(demoTimestamp(base, 3*time.Minute+5*time.Second), "tu-3",
			"     1→def main():\n     2→    print(\"hello, world\")\n     3→\n     4→if __name__ == \"__main__\":\n     5→    main()",
			demoEntry{"type": "text", "file": demoEntry{
				"filePath": appPath, "startLine": 1, "numLines": 5, "totalLines": 5,
			}}),
	}

	if err := writeJSONL(filepath.Join(root, "projects", slug, mainSession+".jsonl"), mainEntries); err != nil {
		return err
	}

	// A second session reaches the same file through the symlinked directory.
	aliasApp := filepath.Join(linkDir, "app.py")
	otherEntries := []demoEntry{
		toolUseEntry(demoTimestamp(base, 2*time.Hour), "tu-1", "Edit",
			demoEntry{"file_path": aliasApp, "old_string": "world", "new_string": "transcript"}, projectDir),
		toolResultEntry(demoTimestamp(base, 2*time.Hour+5*time.Second), "tu-1", "ok",
			demoEntry{"filePath": aliasApp, "oldString": "world", "newString": "transcript", "originalFile": appV2}),
	}
	if err := writeJSONL(filepath.Join(root, "projects", slug, otherSession+".jsonl"), otherEntries); err != nil {
		return err
	}

	// A subagent transcript under the main session.
	subagentEntries := []demoEntry{
		toolUseEntry(demoTimestamp(base, 90*time.Minute), "tu-1", "Write",
			demoEntry{"file_path": configPath, "content": "retries: 3\ntimeout: 30\n"}, projectDir),
		toolResultEntry(demoTimestamp(base, 90*time.Minute+5*time.Second), "tu-1", "ok",
			demoEntry{"type": "create", "filePath": configPath, "content": "retries: 3\ntimeout: 30\n"}),
	}
	subagentPath := filepath.Join(root, "projects", slug, mainSession, "subagents", "agent-"+uuid.NewString()[:8]+".jsonl")
	if err := writeJSONL(subagentPath, subagentEntries); err != nil {
		return err
	}

	// A file-history backup referenced from a snapshot entry, plus a
	// malformed line the scanner must tolerate.
	backupName := uuid.NewString()
	historyDir := filepath.Join(root, "file-history", mainSession)
	if err := os.MkdirAll(historyDir, 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(historyDir, backupName), []byte(appV2), 0o600); err != nil {
		return err
	}

	snapshotEntries := []demoEntry{
		{
			"type":      "user",
			"timestamp": demoTimestamp(base, 4*time.Minute),
			"cwd":       projectDir,
			"message":   demoEntry{"content": "checkpoint"},
		},
		{
			"type":      "file-history-snapshot",
			"timestamp": demoTimestamp(base, 4*time.Minute),
			"snapshot": demoEntry{
				"trackedFileBackups": demoEntry{
					"app.py": demoEntry{
						"backupFileName": backupName,
						"backupTime":     demoTimestamp(base, 4*time.Minute),
					},
				},
			},
		},
	}
	backupTranscript := filepath.Join(root, "projects", slug, mainSession+".jsonl.backup."+base.UTC().Format("2006-01-02"))
	if err := writeJSONL(backupTranscript, snapshotEntries); err != nil {
		return err
	}

	f, err := os.OpenFile(backupTranscript, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // demo tree
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString("{this line is intentionally malformed\n")
	return err
}
