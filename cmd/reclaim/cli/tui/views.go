package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/reclaimio/cli/cmd/reclaim/cli/timeutil"
)

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	errMark  lipgloss.Style
	status   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		selected: lipgloss.NewStyle().Reverse(true),
		dim:      lipgloss.NewStyle().Faint(true),
		yes:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		no:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		errMark:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	switch m.screen {
	case screenDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m model) viewList() string {
	var b strings.Builder

	title := fmt.Sprintf("Recoverable Files (%d)", len(m.paths))
	b.WriteString(m.styles.title.Render(title))
	b.WriteString(m.styles.dim.Render(fmt.Sprintf("   mode: %s", m.mode)))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	rows := m.height - 5
	if rows < 1 {
		rows = 1
	}
	offset := m.listOffset
	if m.cursor < offset {
		offset = m.cursor
	}
	if m.cursor >= offset+rows {
		offset = m.cursor - rows + 1
	}

	for i := offset; i < len(m.paths) && i < offset+rows; i++ {
		f := m.opts.Index[m.paths[i]]
		full := m.styles.no.Render("·")
		if f.HasFullContent() {
			full = m.styles.yes.Render("●")
		}
		line := fmt.Sprintf("%s %-16s %4d  %s", full, timeutil.ToLocal(f.LatestTimestamp()), f.OperationCount(), f.Path)
		line = truncate.StringWithTail(line, uint(m.width), "…")
		if i == m.cursor {
			line = m.styles.selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.paths) == 0 {
		b.WriteString(m.styles.dim.Render("no files match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.status.Render(m.status))
		b.WriteString("\n")
	}
	help := "enter open · / filter · tab mode · e extract · E extract all · q quit"
	b.WriteString(m.styles.dim.Render(truncate.StringWithTail(help, uint(m.width), "…")))
	return b.String()
}

func (m model) viewDetail() string {
	f := m.opts.Index[m.detailPath]
	if f == nil {
		return "gone"
	}

	var b strings.Builder
	header := fmt.Sprintf("%s  %s", f.Path, f.OpTypeSummary())
	if lo, hi := f.ClientVersions(); lo != "" {
		if lo == hi {
			header += fmt.Sprintf("  client %s", lo)
		} else {
			header += fmt.Sprintf("  client %s to %s", lo, hi)
		}
	}
	b.WriteString(m.styles.title.Render(wordwrap.String(header, m.width)))
	b.WriteString("\n")

	op := f.Operations[m.opIndex]
	opLine := fmt.Sprintf("op %d/%d  %s  %s  session %s",
		m.opIndex+1, f.OperationCount(), op.Kind, timeutil.ToLocal(op.Timestamp), op.SessionID)
	if op.IsSubagent {
		opLine += "  (subagent)"
	}
	if op.SourcePath != "" {
		opLine += "  via " + op.SourcePath
	}
	b.WriteString(m.styles.dim.Render(truncate.StringWithTail(opLine, uint(m.width), "…")))
	b.WriteString("\n")
	if op.IsError {
		b.WriteString(m.styles.errMark.Render("error: " + op.ErrorMessage))
		b.WriteString("\n")
	}

	b.WriteString(m.content.View())
	b.WriteString("\n")

	mode := "content"
	if m.showDiff {
		mode = "diff vs previous"
	}
	help := fmt.Sprintf("[%s] · [ ] step ops · d toggle diff · e extract · esc back · q quit", mode)
	b.WriteString(m.styles.dim.Render(truncate.StringWithTail(help, uint(m.width), "…")))
	return b.String()
}
