// Package secrets scans recovered file content for leaked credentials before
// it is written back to disk. Transcripts routinely capture API keys and
// tokens that were present in edited files; surfacing them lets the user
// decide what to do before the recovered tree spreads further.
package secrets

import (
	"fmt"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is one detected credential in recovered content.
type Finding struct {
	Path        string
	RuleID      string
	Description string
	Line        int // 1-indexed
}

// Scanner wraps a gitleaks detector with its default ruleset.
type Scanner struct {
	detector *detect.Detector
}

// NewScanner builds a scanner with the built-in gitleaks rules.
func NewScanner() (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading secret detection rules: %w", err)
	}
	return &Scanner{detector: d}, nil
}

// ScanContent checks one recovered file's content and reports findings.
func (s *Scanner) ScanContent(path, content string) []Finding {
	fragment := detect.Fragment{Raw: content, FilePath: path}

	var findings []Finding
	for _, f := range s.detector.Detect(fragment) {
		findings = append(findings, Finding{
			Path:        path,
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        f.StartLine + 1,
		})
	}
	return findings
}
