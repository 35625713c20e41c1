package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/vortexscan/vortex/pkg/aggregate"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/pipeline"
)

//go:embed templates/report.html
var htmlTemplate string

var reportTmpl = template.Must(template.New("report").Funcs(sprig.FuncMap()).Parse(htmlTemplate))

type htmlView struct {
	Tool      string
	Version   string
	Domain    string
	ScanID    string
	Generated string
	Duration  string
	Summary   aggregate.Summary
	Hosts     []htmlHost
}

type htmlHost struct {
	Name     string
	IP       string
	Status   string
	Live     bool
	Error    string
	Forms    []finding.FormSummary
	Findings []htmlFinding
}

type htmlFinding struct {
	Label    string
	Severity string
	URL      string
	Method   string
	Param    string
	Payload  string
	Evidence string
}

// WriteHTML renders the self-contained HTML report. Hosts with findings
// come first; within a host, higher severities come first.
func WriteHTML(w io.Writer, rep *pipeline.Report) error {
	view := htmlView{
		Tool:      defaults.ToolName,
		Version:   defaults.Version,
		Domain:    rep.Domain,
		ScanID:    rep.ScanID,
		Generated: rep.StartedAt.Local().Format(timeFmt),
		Duration:  rep.Duration.Round(time.Millisecond).String(),
		Summary:   rep.Summary,
	}
	for _, host := range aggregate.SortedHosts(rep.Results) {
		r := rep.Results[host]
		code, live := r.Status.Code()
		h := htmlHost{
			Name:   host,
			IP:     r.IP,
			Status: r.Status.String(),
			Live:   live && code < 400,
			Error:  r.Error,
			Forms:  r.Forms,
		}
		findings := slices.Clone(r.Findings)
		slices.SortStableFunc(findings, func(a, b finding.Finding) int {
			return b.Severity.Score() - a.Severity.Score()
		})
		for _, f := range findings {
			h.Findings = append(h.Findings, htmlFinding{
				Label:    f.Class.Label(),
				Severity: string(f.Severity),
				URL:      f.TargetURL,
				Method:   f.Method,
				Param:    f.Parameter,
				Payload:  f.Payload,
				Evidence: f.Evidence,
			})
		}
		view.Hosts = append(view.Hosts, h)
	}
	if err := reportTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}
