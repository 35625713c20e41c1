// Package metrics records scan counters on a private Prometheus registry.
// Nothing listens on a socket: the registry is exported once per run as a
// node_exporter textfile. A nil *Collector is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
)

const namespace = defaults.ToolName

// Collector holds the scan metrics.
type Collector struct {
	registry *prometheus.Registry

	candidates   prometheus.Counter
	hosts        *prometheus.GaugeVec
	pages        prometheus.Counter
	forms        prometheus.Counter
	requests     prometheus.Counter
	inconclusive prometheus.Counter
	findings     *prometheus.CounterVec
	hostFailures *prometheus.CounterVec
	stageSeconds *prometheus.HistogramVec
	scanSeconds  prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Hostnames submitted to the resolver stage",
		}),
		hosts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts",
			Help:      "Resolved hosts by kind (web or dns_only)",
		}, []string{"kind"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_crawled_total",
			Help:      "Pages fetched by the crawl stage",
		}),
		forms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forms_discovered_total",
			Help:      "Unique forms discovered after deduplication",
		}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injection_requests_total",
			Help:      "Payload submissions sent by the injection stage",
		}),
		inconclusive: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injection_inconclusive_total",
			Help:      "Payload submissions that failed at the network level",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings by vulnerability class and severity",
		}, []string{"class", "severity"}),
		hostFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_failures_total",
			Help:      "Hosts whose crawl or injection failed",
		}, []string{"reason"}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each stage",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		scanSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of the whole scan",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.candidates, c.hosts, c.pages, c.forms, c.requests, c.inconclusive,
		c.findings, c.hostFailures, c.stageSeconds, c.scanSeconds,
	} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Candidates records the resolver input size.
func (c *Collector) Candidates(n int) {
	if c == nil {
		return
	}
	c.candidates.Add(float64(n))
}

// Hosts records resolver output by kind.
func (c *Collector) Hosts(web, dnsOnly int) {
	if c == nil {
		return
	}
	c.hosts.WithLabelValues("web").Set(float64(web))
	c.hosts.WithLabelValues("dns_only").Set(float64(dnsOnly))
}

// Crawl records one host's crawl.
func (c *Collector) Crawl(pages, forms int) {
	if c == nil {
		return
	}
	c.pages.Add(float64(pages))
	c.forms.Add(float64(forms))
}

// Injection records one host's injection work.
func (c *Collector) Injection(requests, inconclusive int64) {
	if c == nil {
		return
	}
	c.requests.Add(float64(requests))
	c.inconclusive.Add(float64(inconclusive))
}

// Finding records one finding.
func (c *Collector) Finding(f finding.Finding) {
	if c == nil {
		return
	}
	c.findings.WithLabelValues(f.Class.String(), f.Class.Severity().String()).Inc()
}

// HostFailure records a host whose downstream work failed.
func (c *Collector) HostFailure(reason string) {
	if c == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	c.hostFailures.WithLabelValues(reason).Inc()
}

// Stage records the duration of a stage.
func (c *Collector) Stage(name string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageSeconds.WithLabelValues(name).Observe(d.Seconds())
}

// Scan records the total scan duration.
func (c *Collector) Scan(d time.Duration) {
	if c == nil {
		return
	}
	c.scanSeconds.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically, for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
