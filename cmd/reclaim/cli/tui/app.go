// Package tui is the interactive browser over a scanned file index: a
// filterable list of recoverable files, a per-file operation timeline with
// time-travel preview, and extraction without leaving the terminal.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/reclaimio/cli/cmd/reclaim/cli/pathfilter"
	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
	"github.com/reclaimio/cli/cmd/reclaim/cli/symlinks"
)

// Options configures the browser.
type Options struct {
	Index             recovery.Index
	SymlinkGroups     []symlinks.Group
	InjectionPatterns []recovery.InjectedPattern
	OutputDir         string
}

type screen int

const (
	screenList screen = iota
	screenDetail
)

type model struct {
	opts   Options
	keys   keyMap
	styles styles

	width  int
	height int

	screen screen

	// List state.
	filter      textinput.Model
	filtering   bool
	mode        pathfilter.Mode
	paths       []string // filtered, in match order
	cursor      int
	listOffset  int
	status      string

	// Detail state.
	detailPath string
	opIndex    int
	showDiff   bool
	content    viewport.Model
}

// Run starts the browser and blocks until the user quits.
func Run(opts Options) error {
	if len(opts.SymlinkGroups) > 0 {
		opts.Index = symlinks.Merge(opts.Index, opts.SymlinkGroups)
	}
	if len(opts.InjectionPatterns) > 0 {
		recovery.StripInjected(opts.Index, opts.InjectionPatterns)
	}

	filter := textinput.New()
	filter.Placeholder = "filter paths"
	filter.Prompt = "/ "
	filter.CharLimit = 256

	m := model{
		opts:    opts,
		keys:    newKeyMap(),
		styles:  newStyles(),
		filter:  filter,
		mode:    pathfilter.ModeFuzzy,
		content: viewport.New(0, 0),
	}
	m.refilter()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd { return nil }

// refilter recomputes the visible path list from the filter box.
func (m *model) refilter() {
	ordered, err := pathfilter.Rank(m.opts.Index.Paths(), m.filter.Value(), m.mode, nil)
	if err != nil {
		m.status = err.Error()
		m.paths = nil
		return
	}
	m.paths = ordered
	if m.cursor >= len(m.paths) {
		m.cursor = max(0, len(m.paths)-1)
	}
}

func (m *model) currentFile() *recovery.File {
	if m.cursor < 0 || m.cursor >= len(m.paths) {
		return nil
	}
	return m.opts.Index[m.paths[m.cursor]]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.content.Width = msg.Width
		m.content.Height = max(1, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		switch m.screen {
		case screenList:
			return m.updateList(msg)
		case screenDetail:
			return m.updateDetail(msg)
		}
	}
	return m, nil
}

func (m model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.paths)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()

	case key.Matches(msg, m.keys.Mode):
		switch m.mode {
		case pathfilter.ModeFuzzy:
			m.mode = pathfilter.ModeGlob
		case pathfilter.ModeGlob:
			m.mode = pathfilter.ModeRegex
		default:
			m.mode = pathfilter.ModeFuzzy
		}
		m.refilter()

	case key.Matches(msg, m.keys.Open):
		if f := m.currentFile(); f != nil {
			m.screen = screenDetail
			m.detailPath = f.Path
			m.opIndex = f.OperationCount() - 1
			m.showDiff = false
			m.refreshDetail()
		}

	case key.Matches(msg, m.keys.Extract):
		if f := m.currentFile(); f != nil {
			m.status = m.extractOne(f)
		}

	case key.Matches(msg, m.keys.ExtractAll):
		m.status = m.extractAll()
	}
	return m, nil
}

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.opts.Index[m.detailPath]
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.screen = screenList
		return m, nil

	case key.Matches(msg, m.keys.PrevOp):
		if m.opIndex > 0 {
			m.opIndex--
			m.refreshDetail()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextOp):
		if f != nil && m.opIndex < f.OperationCount()-1 {
			m.opIndex++
			m.refreshDetail()
		}
		return m, nil

	case key.Matches(msg, m.keys.Diff):
		m.showDiff = !m.showDiff
		m.refreshDetail()
		return m, nil

	case key.Matches(msg, m.keys.Extract):
		if f != nil {
			m.status = m.extractOne(f)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

// refreshDetail reloads the viewport with the reconstruction (or diff) at
// the selected op index.
func (m *model) refreshDetail() {
	f := m.opts.Index[m.detailPath]
	if f == nil || f.OperationCount() == 0 {
		m.content.SetContent("no operations")
		return
	}
	if m.showDiff && m.opIndex > 0 {
		m.content.SetContent(recovery.DiffBetweenOps(f, m.opIndex-1, m.opIndex))
		return
	}
	content := recovery.ReconstructAt(f, m.opIndex)
	if content == nil {
		m.content.SetContent(m.styles.dim.Render("content not reconstructable at this operation"))
		return
	}
	m.content.SetContent(*content)
}

func (m *model) extractOne(f *recovery.File) string {
	res := recovery.Extract(recovery.Index{f.Path: f}, m.opts.OutputDir, "", nil)
	if res.Failed > 0 {
		return fmt.Sprintf("failed to extract %s", f.Path)
	}
	if res.Skipped > 0 {
		return fmt.Sprintf("no content to extract for %s", f.Path)
	}
	return fmt.Sprintf("extracted %s", f.Path)
}

func (m *model) extractAll() string {
	subset := make(recovery.Index, len(m.paths))
	for _, p := range m.paths {
		subset[p] = m.opts.Index[p]
	}
	res := recovery.Extract(subset, m.opts.OutputDir, "", nil)
	return fmt.Sprintf("%d extracted, %d skipped, %d failed -> %s",
		res.Extracted, res.Skipped, res.Failed, m.opts.OutputDir)
}
