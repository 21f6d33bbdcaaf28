package recovery

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/reclaimio/cli/cmd/reclaim/cli/transcript"
)

// DefaultWorkers is the scan pool width when the caller does not choose one.
const DefaultWorkers = 8

// ProgressFunc receives (completed, total) after each transcript finishes.
type ProgressFunc func(completed, total int)

// ScanOptions configures a full scan of a transcript root.
type ScanOptions struct {
	// Root is the assistant's config directory (contains projects/ and,
	// optionally, file-history/).
	Root string
	// Workers bounds the scan pool; DefaultWorkers when <= 0.
	Workers int
	// Progress, when non-nil, is called after each transcript completes.
	Progress ProgressFunc
}

// DiscoverTranscripts locates every session transcript under
// <root>/projects/<slug>/: files ending in .jsonl or containing
// .jsonl.backup, including <session>/subagents/*.jsonl trees.
func DiscoverTranscripts(root string) []string {
	projectsDir := filepath.Join(root, "projects")
	if _, err := os.Stat(projectsDir); err != nil {
		return nil
	}

	var found []string
	_ = godirwalk.Walk(projectsDir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			name := de.Name()
			if strings.HasSuffix(name, ".jsonl") || strings.Contains(name, ".jsonl.backup") {
				found = append(found, osPathname)
			}
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	return found
}

// isSubagentPath reports whether a transcript lives in a subagents/ directory.
func isSubagentPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "subagents" {
			return true
		}
	}
	return false
}

// sessionIDFromPath extracts the session id from a transcript path.
// Main session: <slug>/<uuid>.jsonl (or .jsonl.backup.<suffix>).
// Subagent: <slug>/<uuid>/subagents/agent-<hex>.jsonl; the id is the
// directory above subagents/.
func sessionIDFromPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == "subagents" && i > 0 {
			return parts[i-1]
		}
	}
	name := filepath.Base(path)
	id, _, _ := strings.Cut(name, ".jsonl")
	return id
}

var readLineNumberRe = regexp.MustCompile(`^\s*\d+\x{2192}(.*)$`)

// StripReadLineNumbers removes the "     1→" prefixes the Read tool prepends
// to each output line. Lines without the arrow marker pass through unchanged.
func StripReadLineNumbers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := readLineNumberRe.FindStringSubmatch(line); m != nil {
			lines[i] = m[1]
		}
	}
	return strings.Join(lines, "\n")
}

var toolUseErrorRe = regexp.MustCompile(`(?s)^<tool_use_error>(.*)</tool_use_error>`)

// extractErrorMessage strips the tool_use_error wrapper from an error result.
func extractErrorMessage(raw string) string {
	if m := toolUseErrorRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// isNoopEdit is the fast field-level check: an Edit that cannot possibly
// change content. Errored Edits are kept so callers can show them.
func isNoopEdit(op *Operation) bool {
	if op.Kind != KindEdit || op.IsError {
		return false
	}
	if op.OldString == nil || op.NewString == nil {
		return true
	}
	if *op.OldString == "" {
		return true
	}
	if *op.OldString == *op.NewString {
		return true
	}
	if op.OriginalFile != nil && !strings.Contains(*op.OriginalFile, *op.OldString) {
		return true
	}
	return false
}

// sessionScan holds the per-transcript parse state. The pending map
// correlates tool_use invocations with their results; it is local to one
// worker and dropped when the file is done.
type sessionScan struct {
	root       string
	sessionID  string
	isSubagent bool
	cwd        string
	ops        []*Operation
	pending    map[string]*Operation
	order      []*Operation // pending ops in insertion order, for path matching
}

// ScanSession parses one transcript file into operations. Malformed lines
// and unreadable auxiliary files are skipped, never fatal.
func ScanSession(path, root string) ([]*Operation, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from transcript discovery
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &sessionScan{
		root:       root,
		sessionID:  sessionIDFromPath(path),
		isSubagent: isSubagentPath(path),
		pending:    make(map[string]*Operation),
	}

	reader := bufio.NewReaderSize(f, 1<<20)
	lineNum := 0
	for {
		raw, err := reader.ReadString('\n')
		if raw != "" {
			lineNum++
			s.scanLine(raw, lineNum)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}

	kept := s.ops[:0]
	for _, op := range s.ops {
		if !isNoopEdit(op) {
			kept = append(kept, op)
		}
	}
	return kept, nil
}

func (s *sessionScan) scanLine(raw string, lineNum int) {
	// Fast reject: progress entries dominate transcripts and never carry
	// file operations.
	if strings.Contains(raw, `"type":"progress"`) || strings.Contains(raw, `"type": "progress"`) {
		return
	}

	lines, _ := transcript.ParseFromBytes([]byte(raw))
	if len(lines) != 1 {
		return
	}
	entry := lines[0]

	if s.cwd == "" && entry.CWD != "" {
		s.cwd = entry.CWD
	}

	switch entry.Type {
	case transcript.TypeAssistant:
		s.scanToolUses(&entry, lineNum)
	case transcript.TypeUser:
		s.scanToolResults(&entry)
	case transcript.TypeFileHistorySnapshot:
		s.scanSnapshot(&entry, lineNum)
	}
}

// scanToolUses emits a pending operation for every file-touching tool_use
// block of an assistant entry.
func (s *sessionScan) scanToolUses(entry *transcript.Line, lineNum int) {
	for _, block := range entry.AssistantContent() {
		if block.Type != transcript.ContentTypeToolUse || block.Input == nil || block.Input.FilePath == "" {
			continue
		}

		op := &Operation{
			Path:          block.Input.FilePath,
			Timestamp:     entry.Timestamp,
			SessionID:     s.sessionID,
			LineNumber:    lineNum,
			ToolUseID:     block.ID,
			IsSubagent:    s.isSubagent,
			ClientVersion: entry.Version,
		}

		switch block.Name {
		case transcript.ToolWrite:
			// Refined to create/update by the tool result; the input content
			// is a fallback when no result arrives.
			op.Kind = KindWriteCreate
			op.Content = block.Input.Content
		case transcript.ToolEdit:
			op.Kind = KindEdit
			op.OldString = block.Input.OldString
			op.NewString = block.Input.NewString
			op.ReplaceAll = block.Input.ReplaceAll
		case transcript.ToolRead:
			op.Kind = KindRead
			op.ReadOffset = block.Input.Offset
			op.ReadLimit = block.Input.Limit
		default:
			continue
		}

		s.ops = append(s.ops, op)
		if op.ToolUseID != "" {
			s.pending[op.ToolUseID] = op
			s.order = append(s.order, op)
		}
	}
}

// scanToolResults consumes a user entry: the top-level toolUseResult envelope
// and the tool_result content blocks both enrich pending operations.
func (s *sessionScan) scanToolResults(entry *transcript.Line) {
	result := entry.ResultObject()

	var persisted *string
	if result != nil && result.PersistedOutputPath != "" {
		if data, err := os.ReadFile(result.PersistedOutputPath); err == nil {
			persisted = strPtr(strings.ToValidUTF8(string(data), "�"))
		}
		// Unreadable persisted output falls back to the embedded content.
	}

	if result != nil {
		s.enrichFromResult(result)
	}

	// A bare-string envelope of the form "Error: ..." marks the correlated
	// operation errored.
	if msg, ok := entry.ResultString(); ok && strings.HasPrefix(msg, "Error: ") {
		for _, block := range entry.UserContentBlocks() {
			if block.Type != transcript.ContentTypeToolResult {
				continue
			}
			if op, ok := s.pending[block.ToolUseID]; ok {
				op.IsError = true
				op.ErrorMessage = strings.TrimPrefix(msg, "Error: ")
			}
			break
		}
	}

	for _, block := range entry.UserContentBlocks() {
		if block.Type != transcript.ContentTypeToolResult || block.ToolUseID == "" {
			continue
		}
		op, ok := s.pending[block.ToolUseID]
		if !ok {
			continue
		}

		if block.IsError {
			op.IsError = true
			if raw, ok := block.ContentText(); ok {
				op.ErrorMessage = extractErrorMessage(raw)
			}
			continue
		}

		if op.Kind == KindRead && op.Content == nil {
			raw, ok := block.ContentText()
			if !ok {
				continue
			}
			// Externalized output: the inline content is only a marker.
			if strings.HasPrefix(raw, "<persisted-output>") && persisted != nil {
				raw = *persisted
			}
			if strings.ContainsRune(raw, '→') {
				raw = StripReadLineNumbers(raw)
			}
			op.Content = strPtr(raw)
		}
	}
}

// enrichFromResult folds a toolUseResult object into the most recent pending
// operation for the same file path.
func (s *sessionScan) enrichFromResult(result *transcript.ToolUseResult) {
	filePath := result.FilePath
	if filePath == "" && result.File != nil {
		filePath = result.File.FilePath
	}
	if filePath == "" {
		return
	}

	var op *Operation
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i].Path == filePath {
			op = s.order[i]
			break
		}
	}
	if op == nil {
		return
	}

	switch {
	case result.Type == "create":
		op.Kind = KindWriteCreate
		op.Content = result.Content
		op.OriginalFile = nil

	case result.Type == "update":
		op.Kind = KindWriteUpdate
		op.Content = result.Content
		op.OriginalFile = result.OriginalFile

	case op.Kind == KindEdit:
		op.OriginalFile = result.OriginalFile
		if result.OldString != nil && *result.OldString != "" {
			op.OldString = result.OldString
		}
		if result.NewString != nil {
			op.NewString = result.NewString
		}
		if result.ReplaceAll != nil {
			op.ReplaceAll = *result.ReplaceAll
		}

	case op.Kind == KindRead:
		if result.File == nil {
			return
		}
		if result.File.StartLine != nil {
			op.ReadStartLine = result.File.StartLine
		}
		if result.File.NumLines != nil {
			op.ReadNumLines = result.File.NumLines
		}
		if result.File.TotalLines != nil {
			op.ReadTotalLines = result.File.TotalLines
		}
	}
}

// scanSnapshot emits a FileHistory operation for every tracked backup of a
// file-history-snapshot entry, reading backup content from
// <root>/file-history/<session>/<backupFileName>.
func (s *sessionScan) scanSnapshot(entry *transcript.Line, lineNum int) {
	if entry.Snapshot == nil || s.root == "" {
		return
	}
	for relPath, backup := range entry.Snapshot.TrackedFileBackups {
		if backup.BackupFileName == "" {
			continue
		}

		absPath := relPath
		if s.cwd != "" && !filepath.IsAbs(relPath) {
			absPath = filepath.Clean(filepath.Join(s.cwd, relPath))
		}

		backupFile := filepath.Join(s.root, "file-history", s.sessionID, backup.BackupFileName)
		data, err := os.ReadFile(backupFile) //nolint:gosec // constructed from transcript root
		if err != nil {
			continue
		}

		ts := backup.BackupTime
		if ts == "" {
			ts = entry.Timestamp
		}

		s.ops = append(s.ops, &Operation{
			Kind:          KindFileHistory,
			Path:          absPath,
			Timestamp:     ts,
			SessionID:     s.sessionID,
			LineNumber:    lineNum,
			IsSubagent:    s.isSubagent,
			Content:       strPtr(strings.ToValidUTF8(string(data), "�")),
			ClientVersion: entry.Version,
		})
	}
}

// filterNoopEditsByReplay removes Edits that provably change nothing when
// the sorted timeline is replayed. This catches retried/duplicate edits the
// field-level check cannot see: an Edit whose original_file already equals
// its post-edit state.
func filterNoopEditsByReplay(ops []*Operation) []*Operation {
	result := make([]*Operation, 0, len(ops))
	var content *string

	for _, op := range ops {
		if op.Kind != KindEdit {
			if !op.IsError {
				content = replayStep(content, op)
			}
			result = append(result, op)
			continue
		}

		if op.IsError {
			result = append(result, op)
			continue
		}

		if op.OriginalFile != nil {
			// Authoritative pre-edit state: compare against the actual file,
			// not the reconstructed chain.
			after := *op.OriginalFile
			if op.OldString != nil && op.NewString != nil {
				after = ApplyEdit(*op.OriginalFile, *op.OldString, *op.NewString, op.ReplaceAll)
			}
			content = strPtr(after)
			if after != *op.OriginalFile {
				result = append(result, op)
			}
			continue
		}

		before := content
		if content != nil && op.OldString != nil && op.NewString != nil {
			content = strPtr(ApplyEdit(*content, *op.OldString, *op.NewString, op.ReplaceAll))
		}
		if !sameContent(before, content) {
			result = append(result, op)
		}
	}

	return result
}

func sameContent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ScanAll scans every transcript under the root on a bounded worker pool and
// aggregates operations into a per-path index. Failing transcripts are
// skipped. The returned index is sorted and no-op-filtered, ready to query.
func ScanAll(ctx context.Context, opts ScanOptions) (Index, error) {
	ctx, span := otel.Tracer("reclaim/recovery").Start(ctx, "recovery.ScanAll")
	defer span.End()

	files := DiscoverTranscripts(opts.Root)
	total := len(files)
	span.SetAttributes(attribute.Int("transcripts", total))

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > total && total > 0 {
		workers = total
	}

	jobs := make(chan string)
	results := make(chan []*Operation)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				ops, err := ScanSession(path, opts.Root)
				if err != nil {
					results <- nil // skip malformed file, keep progress moving
					continue
				}
				results <- ops
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var allOps []*Operation
	completed := 0
	for ops := range results {
		completed++
		if opts.Progress != nil {
			opts.Progress(completed, total)
		}
		allOps = append(allOps, ops...)
	}

	index := make(Index)
	for _, op := range allOps {
		f, ok := index[op.Path]
		if !ok {
			f = &File{Path: op.Path}
			index[op.Path] = f
		}
		f.Operations = append(f.Operations, op)
	}

	for _, f := range index {
		sortOperations(f.Operations)
		f.Operations = filterNoopEditsByReplay(f.Operations)
	}

	return index, ctx.Err()
}
