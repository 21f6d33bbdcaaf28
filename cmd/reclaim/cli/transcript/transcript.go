// Package transcript defines the wire types for session transcript files and
// a tolerant JSONL parser. Each transcript line is an independent JSON value;
// malformed lines are skipped, never fatal.
package transcript

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Line type constants for the entries the recovery engine cares about.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeProgress            = "progress"
	TypeFileHistorySnapshot = "file-history-snapshot"
)

// Content block type constants.
const (
	ContentTypeText       = "text"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

// Tool names that touch files.
const (
	ToolWrite = "Write"
	ToolEdit  = "Edit"
	ToolRead  = "Read"
)

// Line is a single parsed transcript entry.
type Line struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	CWD       string          `json:"cwd,omitempty"`
	Version   string          `json:"version,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`

	// ToolUseResult is the top-level result envelope on user entries. It is
	// usually an object but occasionally a bare string (e.g. "Error: ...").
	ToolUseResult json.RawMessage `json:"toolUseResult,omitempty"`

	// Snapshot is present on file-history-snapshot entries.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// AssistantMessage is the message payload of an assistant entry.
type AssistantMessage struct {
	Content []ContentBlock `json:"content"`
}

// UserMessage is the message payload of a user entry. Content is either a
// string or an array of content blocks; keep it raw and decode on demand.
type UserMessage struct {
	Content json.RawMessage `json:"content"`
}

// ContentBlock is one element of a message content array.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     *ToolInput      `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// ToolInput carries the file-touching parameters of a tool_use block.
// Optional textual fields are pointers: an empty string is legitimate content.
type ToolInput struct {
	FilePath   string  `json:"file_path,omitempty"`
	Content    *string `json:"content,omitempty"`
	OldString  *string `json:"old_string,omitempty"`
	NewString  *string `json:"new_string,omitempty"`
	ReplaceAll bool    `json:"replace_all,omitempty"`
	Offset     *int    `json:"offset,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
}

// ToolUseResult is the object form of the top-level result envelope.
//
//	Write:  {type:"create"|"update", filePath, content, originalFile?}
//	Edit:   {filePath, oldString, newString, originalFile?, replaceAll?}
//	Read:   {type:"text", file:{filePath, content, startLine, numLines, totalLines}}
type ToolUseResult struct {
	Type                string        `json:"type,omitempty"`
	FilePath            string        `json:"filePath,omitempty"`
	Content             *string       `json:"content,omitempty"`
	OriginalFile        *string       `json:"originalFile,omitempty"`
	OldString           *string       `json:"oldString,omitempty"`
	NewString           *string       `json:"newString,omitempty"`
	ReplaceAll          *bool         `json:"replaceAll,omitempty"`
	File                *ReadFileInfo `json:"file,omitempty"`
	PersistedOutputPath string        `json:"persistedOutputPath,omitempty"`
}

// ReadFileInfo is the nested file object of a Read result.
type ReadFileInfo struct {
	FilePath   string `json:"filePath,omitempty"`
	Content    string `json:"content,omitempty"`
	StartLine  *int   `json:"startLine,omitempty"`
	NumLines   *int   `json:"numLines,omitempty"`
	TotalLines *int   `json:"totalLines,omitempty"`
}

// Snapshot is the payload of a file-history-snapshot entry.
type Snapshot struct {
	TrackedFileBackups map[string]FileBackup `json:"trackedFileBackups"`
}

// FileBackup describes one tracked backup inside a snapshot.
type FileBackup struct {
	BackupFileName string `json:"backupFileName"`
	BackupTime     string `json:"backupTime"`
}

// ParseFromBytes parses JSONL transcript content. Malformed lines are skipped.
func ParseFromBytes(content []byte) ([]Line, error) {
	var lines []Line
	for _, raw := range bytes.Split(content, []byte("\n")) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ResultObject decodes the line's toolUseResult as an object.
// Returns nil when the envelope is absent or not an object.
func (l *Line) ResultObject() *ToolUseResult {
	if len(l.ToolUseResult) == 0 || l.ToolUseResult[0] != '{' {
		return nil
	}
	var r ToolUseResult
	if err := json.Unmarshal(l.ToolUseResult, &r); err != nil {
		return nil
	}
	return &r
}

// ResultString decodes the line's toolUseResult as a bare string.
func (l *Line) ResultString() (string, bool) {
	if len(l.ToolUseResult) == 0 || l.ToolUseResult[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(l.ToolUseResult, &s); err != nil {
		return "", false
	}
	return s, true
}

// AssistantContent decodes the message payload of an assistant entry.
func (l *Line) AssistantContent() []ContentBlock {
	if len(l.Message) == 0 {
		return nil
	}
	var msg AssistantMessage
	if err := json.Unmarshal(l.Message, &msg); err != nil {
		return nil
	}
	return msg.Content
}

// UserContentBlocks decodes the content blocks of a user entry.
// Returns nil when the content is a plain string.
func (l *Line) UserContentBlocks() []ContentBlock {
	if len(l.Message) == 0 {
		return nil
	}
	var msg UserMessage
	if err := json.Unmarshal(l.Message, &msg); err != nil {
		return nil
	}
	if len(msg.Content) == 0 || msg.Content[0] != '[' {
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return nil
	}
	return blocks
}

// ContentText flattens a tool_result block's content to text. The content is
// either a bare string or an array of text blocks.
func (b *ContentBlock) ContentText() (string, bool) {
	if len(b.Content) == 0 {
		return "", false
	}
	if b.Content[0] == '"' {
		var s string
		if err := json.Unmarshal(b.Content, &s); err != nil {
			return "", false
		}
		return s, true
	}
	if b.Content[0] == '[' {
		var parts []ContentBlock
		if err := json.Unmarshal(b.Content, &parts); err != nil {
			return "", false
		}
		var texts []string
		for _, p := range parts {
			if p.Type == ContentTypeText && p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		if len(texts) == 0 {
			return "", false
		}
		return strings.Join(texts, "\n"), true
	}
	return "", false
}
