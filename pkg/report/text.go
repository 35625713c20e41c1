package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/pipeline"
)

const (
	ruleWidth = 75
	timeFmt   = "2006-01-02 15:04:05"
)

// ByStatus returns hostnames sorted by the textual status, then hostname.
// Numeric codes sort before "DNS-ONLY".
func ByStatus(results map[string]finding.ScanResult) []string {
	hosts := make([]string, 0, len(results))
	for h := range results {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		a, b := results[hosts[i]].Status.String(), results[hosts[j]].Status.String()
		if a != b {
			return a < b
		}
		return hosts[i] < hosts[j]
	})
	return hosts
}

// WriteTable writes the fixed-width subdomain table.
func WriteTable(w io.Writer, rep *pipeline.Report) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "VORTEX SCANNER - RECON REPORT")
	fmt.Fprintf(bw, "Target: %s | Date: %s\n", rep.Domain, rep.StartedAt.Local().Format(timeFmt))
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "%-35s | %-15s | %-10s | %5s | %8s\n", "SUBDOMAIN", "IP ADDRESS", "STATUS", "FORMS", "FINDINGS")
	fmt.Fprintln(bw, strings.Repeat("-", ruleWidth))

	for _, host := range ByStatus(rep.Results) {
		r := rep.Results[host]
		fmt.Fprintf(bw, "%-35s | %-15s | %-10s | %5d | %8d\n",
			host, r.IP, r.Status.String(), r.FormCount, len(r.Findings))
	}
	return bw.Flush()
}
