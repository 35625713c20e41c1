package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vortexscan/vortex/pkg/finding"
)

// Color palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	High   = lipgloss.Color("#FF6B6B")
	Medium = lipgloss.Color("#FFD93D")
	Low    = lipgloss.Color("#6BCB77")
	Info   = lipgloss.Color("#4D96FF")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
	Bright  = lipgloss.Color("#FAFAFA")

	Status2xx = lipgloss.Color("#00D26A")
	Status3xx = lipgloss.Color("#4D96FF")
	Status4xx = lipgloss.Color("#FFD93D")
	Status5xx = lipgloss.Color("#FF3838")
)

// styles are bound to one renderer so a console writing to a pipe never
// emits escape codes, whatever the global colour profile says.
type styles struct {
	r *lipgloss.Renderer

	banner  lipgloss.Style
	version lipgloss.Style
	phase   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	alert   lipgloss.Style
	muted   lipgloss.Style
	value   lipgloss.Style
	label   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		r:       r,
		banner:  r.NewStyle().Foreground(Primary).Bold(true),
		version: r.NewStyle().Foreground(Secondary).Bold(true),
		phase:   r.NewStyle().Foreground(Bright).Background(Primary).Bold(true).Padding(0, 1),
		good:    r.NewStyle().Foreground(Success).Bold(true),
		warn:    r.NewStyle().Foreground(Warning),
		alert:   r.NewStyle().Foreground(Error).Bold(true),
		muted:   r.NewStyle().Foreground(Muted),
		value:   r.NewStyle().Foreground(Bright).Bold(true),
		label:   r.NewStyle().Foreground(Muted).Width(16),
	}
}

// severity returns the badge style for a severity level.
func (s styles) severity(sev finding.Severity) lipgloss.Style {
	base := s.r.NewStyle().Bold(true).Padding(0, 1)
	switch sev {
	case finding.High:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(High)
	case finding.Medium:
		return base.Foreground(lipgloss.Color("#000000")).Background(Medium)
	case finding.Low:
		return base.Foreground(lipgloss.Color("#000000")).Background(Low)
	case finding.Info:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Info)
	}
	return base.Foreground(Muted)
}

// status returns the style for an HTTP status; DNS-only is muted.
func (s styles) status(st finding.HTTPStatus) lipgloss.Style {
	base := s.r.NewStyle().Bold(true)
	code, ok := st.Code()
	switch {
	case !ok:
		return base.Foreground(Muted)
	case code < 300:
		return base.Foreground(Status2xx)
	case code < 400:
		return base.Foreground(Status3xx)
	case code < 500:
		return base.Foreground(Status4xx)
	}
	return base.Foreground(Status5xx)
}
