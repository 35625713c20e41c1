// Package aggregate merges the resolver output with per-host crawl and
// injection outcomes into exactly one ScanResult per resolved host.
package aggregate

import (
	"sort"

	"github.com/vortexscan/vortex/pkg/finding"
)

// Outcome is what the crawl and injection stages produced for one host.
// Err records why the host's downstream work failed, if it did.
type Outcome struct {
	FormCount int
	Forms     []finding.FormSummary
	Findings  []finding.Finding
	Err       error
}

// Merge returns one result per host in targets. Hosts without an outcome,
// or whose outcome carries an error, get zero forms and an empty (non-nil)
// findings list. Outcomes for hosts not in targets are ignored.
func Merge(targets map[string]finding.Target, outcomes map[string]Outcome) map[string]finding.ScanResult {
	out := make(map[string]finding.ScanResult, len(targets))
	for host, t := range targets {
		r := finding.NewScanResult(t)
		if o, ok := outcomes[host]; ok {
			if o.Err != nil {
				r.Error = o.Err.Error()
			} else {
				r.FormCount = o.FormCount
				r.Forms = o.Forms
				if len(o.Findings) > 0 {
					r.Findings = append(r.Findings, o.Findings...)
				}
			}
		}
		out[host] = r
	}
	return out
}

// Summary holds run totals.
type Summary struct {
	Hosts        int                   `json:"hosts"`
	WebHosts     int                   `json:"web_hosts"`
	DNSOnlyHosts int                   `json:"dns_only_hosts"`
	FailedHosts  int                   `json:"failed_hosts"`
	Forms        int                   `json:"forms"`
	Findings     int                   `json:"findings"`
	ByClass      map[finding.Class]int `json:"by_class"`
}

// Summarize computes totals over results.
func Summarize(results map[string]finding.ScanResult) Summary {
	s := Summary{ByClass: make(map[finding.Class]int)}
	for _, c := range finding.Classes() {
		s.ByClass[c] = 0
	}
	for _, r := range results {
		s.Hosts++
		if r.Status.IsDNSOnly() {
			s.DNSOnlyHosts++
		} else {
			s.WebHosts++
		}
		if r.Error != "" {
			s.FailedHosts++
		}
		s.Forms += r.FormCount
		s.Findings += len(r.Findings)
		for _, f := range r.Findings {
			s.ByClass[f.Class]++
		}
	}
	return s
}

// SortedHosts returns hostnames ordered by finding count (descending),
// then hostname.
func SortedHosts(results map[string]finding.ScanResult) []string {
	hosts := make([]string, 0, len(results))
	for h := range results {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		a, b := len(results[hosts[i]].Findings), len(results[hosts[j]].Findings)
		if a != b {
			return a > b
		}
		return hosts[i] < hosts[j]
	})
	return hosts
}
