// Package ui renders the scanner's console output: banner, phase headers,
// per-host progress lines and the final summary. Output goes to one writer
// (stderr in the CLI) so stdout stays free for JSON.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vortexscan/vortex/pkg/aggregate"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/pipeline"
)

const bannerArt = `
                     __
 _  __ ____   _____ / /_ ___   _  __
| |/ // __ \ / ___// __// _ \ | |/_/
|   // /_/ // /   / /_ /  __/_>  <
|__/ \____//_/    \__/ \___//_/|_|
`

// Options configures a Console.
type Options struct {
	Silent  bool // suppress everything except errors
	NoColor bool // never emit escape codes
	Verbose bool // also list forms per host
}

// Console writes human-readable progress. It implements pipeline.Progress
// and is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	opts    Options
	st      styles
	title   cases.Caser
	upper   cases.Caser
	unicode bool
}

var _ pipeline.Progress = (*Console)(nil)

// NewConsole creates a console writing to w. Colour is enabled only when w
// is a terminal and neither opts.NoColor nor NO_COLOR is set.
func NewConsole(w io.Writer, opts Options) *Console {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor || !ColorEnabled(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		w:       w,
		opts:    opts,
		st:      newStyles(r),
		title:   cases.Title(language.English),
		upper:   cases.Upper(language.English),
		unicode: UnicodeEnabled(w),
	}
}

func (c *Console) icon(unicode, ascii string) string {
	if c.unicode {
		return unicode
	}
	return ascii
}

// writeln writes one line; callers hold c.mu, which also guards the
// casers (a cases.Caser is not safe for concurrent use).
func (c *Console) writeln(s string) {
	fmt.Fprintln(c.w, s)
}

// Banner prints the tool banner and version.
func (c *Console) Banner() {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	for _, line := range strings.Split(strings.Trim(bannerArt, "\n"), "\n") {
		b.WriteString(c.st.banner.Render(line))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "          %s %s\n", defaults.ToolName, c.st.version.Render("v"+defaults.Version))
	c.writeln(b.String())
}

// Stage prints a numbered stage header.
func (c *Console) Stage(n int, name string) {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln("\n" + c.st.phase.Render(fmt.Sprintf("PHASE %d", n)) + " " + c.title.String(name))
}

// Infof prints an informational line.
func (c *Console) Infof(format string, args ...any) {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln(c.st.muted.Render("[*]") + " " + fmt.Sprintf(format, args...))
}

// Errorf prints an error line. Silent mode does not suppress errors.
func (c *Console) Errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln(c.st.alert.Render("[!]") + " " + fmt.Sprintf(format, args...))
}

// Resolved prints one resolved host.
func (c *Console) Resolved(t finding.Target) {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	mark := c.st.good.Render(c.icon("✔", "[+]"))
	if t.Status.IsDNSOnly() {
		mark = c.st.muted.Render(c.icon("·", "[-]"))
	}
	c.writeln(fmt.Sprintf("%s %-40s %-15s %s",
		mark, t.Host, t.IP, c.st.status(t.Status).Render("["+t.Status.String()+"]")))
}

// Scanned prints the outcome of one host's crawl and injection.
// DNS-only hosts produce no line.
func (c *Console) Scanned(host string, o aggregate.Outcome) {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	switch {
	case o.Err != nil:
		fmt.Fprintf(&b, "%s %s: %s", c.st.warn.Render("[!]"), host, o.Err)
	case o.FormCount == 0 && len(o.Findings) == 0:
		if o.Forms == nil {
			return
		}
		fmt.Fprintf(&b, "%s %s: no forms found", c.st.muted.Render("[i]"), host)
	default:
		fmt.Fprintf(&b, "%s %s: %d form(s)", c.st.muted.Render("[i]"), host, o.FormCount)
	}
	if c.opts.Verbose {
		for _, f := range o.Forms {
			names := make([]string, 0, len(f.Inputs))
			for _, in := range f.Inputs {
				names = append(names, in.Name)
			}
			fmt.Fprintf(&b, "\n    %s %s %s %s", c.st.muted.Render("form"),
				c.upper.String(f.Method), f.Action, c.st.muted.Render("["+strings.Join(names, ", ")+"]"))
		}
	}
	for _, f := range o.Findings {
		fmt.Fprintf(&b, "\n    %s %s %s %s %s",
			c.st.severity(f.Severity).Render(c.title.String(string(f.Severity))),
			c.st.alert.Render(c.upper.String(f.Class.Label())),
			f.TargetURL,
			c.st.muted.Render("param="+f.Parameter),
			c.st.muted.Render("payload="+Truncate(f.Payload, 40)))
	}
	c.writeln(b.String())
}

// Summary prints run totals and the hosts with findings.
func (c *Console) Summary(rep *pipeline.Report) {
	if c.opts.Silent || rep == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := rep.Summary
	var b strings.Builder
	b.WriteString("\n" + c.st.phase.Render("SUMMARY") + "\n")
	row := func(label string, v any) {
		b.WriteString(c.st.label.Render(label) + c.st.value.Render(fmt.Sprint(v)) + "\n")
	}
	row("Domain", rep.Domain)
	row("Hosts", s.Hosts)
	row("Web services", s.WebHosts)
	row("DNS only", s.DNSOnlyHosts)
	if s.FailedHosts > 0 {
		row("Failed", s.FailedHosts)
	}
	row("Forms", s.Forms)
	for _, cls := range finding.Classes() {
		row(c.upper.String(cls.Label()), s.ByClass[cls])
	}
	row("Duration", fmt.Sprintf("%.1fs", rep.DurationSeconds))

	for _, host := range aggregate.SortedHosts(rep.Results) {
		r := rep.Results[host]
		if len(r.Findings) == 0 {
			break
		}
		fmt.Fprintf(&b, "%s %s (%d)\n", c.st.alert.Render(c.icon("⚠", "[!]")), host, len(r.Findings))
	}
	c.writeln(strings.TrimRight(b.String(), "\n"))
}

// Files lists written report files.
func (c *Console) Files(paths ...string) {
	if c.opts.Silent {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		c.writeln(c.st.good.Render("[+]") + " " + p)
	}
}
