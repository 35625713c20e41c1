package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexscan/vortex/pkg/finding"
)

func TestCollector_WriteTextfile(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	c.Candidates(120)
	c.Hosts(3, 2)
	c.Crawl(14, 4)
	c.Injection(40, 2)
	c.Finding(finding.Finding{Class: finding.SQLInjection})
	c.Finding(finding.Finding{Class: finding.ReflectedXSS})
	c.Finding(finding.Finding{Class: finding.ReflectedXSS})
	c.HostFailure("")
	c.Stage("resolve", 2*time.Second)
	c.Scan(5 * time.Second)

	path := filepath.Join(t.TempDir(), "vortex.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	for _, want := range []string{
		"vortex_candidates_total 120",
		`vortex_hosts{kind="web"} 3`,
		`vortex_hosts{kind="dns_only"} 2`,
		"vortex_pages_crawled_total 14",
		"vortex_forms_discovered_total 4",
		"vortex_injection_requests_total 40",
		"vortex_injection_inconclusive_total 2",
		`vortex_findings_total{class="SQLInjection",severity="high"} 1`,
		`vortex_findings_total{class="ReflectedXSS",severity="medium"} 2`,
		`vortex_host_failures_total{reason="unknown"} 1`,
		`vortex_stage_duration_seconds_count{stage="resolve"} 1`,
		"vortex_scan_duration_seconds 5",
	} {
		assert.Contains(t, text, want)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Candidates(1)
		c.Hosts(1, 1)
		c.Crawl(1, 1)
		c.Injection(1, 1)
		c.Finding(finding.Finding{Class: finding.SQLInjection})
		c.HostFailure("x")
		c.Stage("crawl", time.Second)
		c.Scan(time.Second)
	})
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, c.Registry())
}

func TestCollector_WriteTextfileBadPath(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Error(t, c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}
