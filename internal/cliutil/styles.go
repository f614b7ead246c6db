package cliutil

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles renders the dev status lines. When Plain is set every style renders
// its input unchanged.
type Styles struct {
	Plain bool

	accent  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewStyles returns styles for w, disabling colour unless w is a terminal.
func NewStyles(w io.Writer) Styles {
	s := Styles{
		Plain:   !IsTerminal(w),
		accent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	return s
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (s Styles) render(style lipgloss.Style, text string) string {
	if s.Plain {
		return text
	}
	return style.Render(text)
}

func (s Styles) Accent(text string) string { return s.render(s.accent, text) }
func (s Styles) Success(text string) string { return s.render(s.success, text) }
func (s Styles) Warning(text string) string { return s.render(s.warning, text) }
func (s Styles) Failure(text string) string { return s.render(s.failure, text) }
func (s Styles) Muted(text string) string { return s.render(s.muted, text) }
