// Package style holds the lipgloss styles shared by the shell and reports.
package style

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette
var (
	Red    = lipgloss.Color("9")
	Green  = lipgloss.Color("10")
	Yellow = lipgloss.Color("11")
	Blue   = lipgloss.Color("12")
	Cyan   = lipgloss.Color("14")
	Faint  = lipgloss.Color("8")
)

// Styles is a set of renderers. The zero value is not usable; call New.
type Styles struct {
	Prompt  lipgloss.Style
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Dir     lipgloss.Style
	Exec    lipgloss.Style
	Bold    lipgloss.Style
}

// New builds the styles. With noColor every style renders plain text.
func New(noColor bool) *Styles {
	r := lipgloss.DefaultRenderer()
	if noColor {
		r = lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Prompt:  r.NewStyle().Foreground(Cyan).Bold(true),
		Header:  r.NewStyle().Foreground(Blue).Bold(true),
		Success: r.NewStyle().Foreground(Green),
		Warning: r.NewStyle().Foreground(Yellow),
		Error:   r.NewStyle().Foreground(Red).Bold(true),
		Muted:   r.NewStyle().Foreground(Faint),
		Dir:     r.NewStyle().Foreground(Blue).Bold(true),
		Exec:    r.NewStyle().Foreground(Green),
		Bold:    r.NewStyle().Bold(true),
	}
}

// Plain renders without any color
func Plain() *Styles {
	return New(true)
}
