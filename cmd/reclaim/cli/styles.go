package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// outputStyles holds pre-built lipgloss styles and terminal metadata for
// command output.
type outputStyles struct {
	colorEnabled bool
	width        int

	green  lipgloss.Style
	red    lipgloss.Style
	yellow lipgloss.Style
	cyan   lipgloss.Style
	bold   lipgloss.Style
	dim    lipgloss.Style
}

// newOutputStyles creates styles appropriate for the output writer.
func newOutputStyles(w io.Writer) outputStyles {
	s := outputStyles{
		colorEnabled: shouldUseColor(w),
		width:        terminalWidth(),
	}
	if s.colorEnabled {
		s.green = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		s.red = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		s.yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
		s.cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
		s.bold = lipgloss.NewStyle().Bold(true)
		s.dim = lipgloss.NewStyle().Faint(true)
	}
	return s
}

// render applies a style only when color is enabled.
func (s outputStyles) render(style lipgloss.Style, text string) string {
	if !s.colorEnabled {
		return text
	}
	return style.Render(text)
}

// shouldUseColor reports whether w is an interactive terminal that wants color.
func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// isInteractive reports whether both stdin and stdout are terminals, which
// gates confirmation prompts.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, defaulting to 80.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
