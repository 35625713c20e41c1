// Package config holds the scanner configuration: a YAML file merged with
// command line flags, validated once before any network work starts.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vortexscan/vortex/pkg/crawler"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/duration"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/httpclient"
	"github.com/vortexscan/vortex/pkg/pipeline"
	"github.com/vortexscan/vortex/pkg/probe"
	"github.com/vortexscan/vortex/pkg/retry"
)

// Config holds all scan settings.
type Config struct {
	// Target settings
	Domain   string `yaml:"domain"`
	Wordlist string `yaml:"wordlist"` // subdomain label file (empty = built-in list)

	Resolver ResolverConfig `yaml:"resolver"`
	HTTP     HTTPConfig     `yaml:"http"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Inject   InjectConfig   `yaml:"inject"`

	// HostConcurrency bounds hosts crawled and injected at once (default: 5)
	HostConcurrency int `yaml:"host_concurrency"`

	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ResolverConfig configures DNS resolution and the liveness probe.
type ResolverConfig struct {
	Threads    int           `yaml:"threads"`     // resolver workers (default: 50)
	DNSServers []string      `yaml:"dns_servers"` // default: public resolvers
	DNSTimeout time.Duration `yaml:"dns_timeout"` // per query (default: 4s)
	Attempts   int           `yaml:"attempts"`    // per candidate (default: 2)
	Wildcard   bool          `yaml:"wildcard"`    // drop wildcard-DNS hosts
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout"`         // probe deadline (default: 8s)
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // default: 3s
	CrawlTimeout   time.Duration `yaml:"crawl_timeout"`   // default: 7s
	InjectTimeout  time.Duration `yaml:"inject_timeout"`  // default: 5s
	Rate           float64       `yaml:"rate"`            // requests/s per host (0 = unlimited)
	Proxy          string        `yaml:"proxy"`
	UserAgent      string        `yaml:"user_agent"`
	MaxRedirects   int           `yaml:"max_redirects"` // default: 10
}

// CrawlConfig configures the form crawler.
type CrawlConfig struct {
	Depth       int `yaml:"depth"`       // levels including the start page (default: 2)
	MaxPages    int `yaml:"max_pages"`   // per host (default: 200)
	Concurrency int `yaml:"concurrency"` // per level (default: 10)
}

// InjectConfig configures the injection stage.
type InjectConfig struct {
	Concurrency  int    `yaml:"concurrency"`   // per host (default: 10)
	SQLiPayloads string `yaml:"sqli_payloads"` // optional extra payload file
	XSSPayloads  string `yaml:"xss_payloads"`  // optional extra payload file
	Filler       string `yaml:"filler"`        // default: "test"
}

// OutputConfig configures reports and console output.
type OutputConfig struct {
	Dir     string `yaml:"dir"`  // report directory (empty = no files)
	JSON    bool   `yaml:"json"` // print the JSON report to stdout
	Silent  bool   `yaml:"silent"`
	NoColor bool   `yaml:"no_color"`
	Verbose bool   `yaml:"verbose"`
	LogJSON bool   `yaml:"log_json"`
}

// TelemetryConfig configures metrics export and tracing.
type TelemetryConfig struct {
	MetricsFile  string `yaml:"metrics_file"`  // Prometheus textfile path
	OTelEndpoint string `yaml:"otel_endpoint"` // OTLP gRPC endpoint
	OTelInsecure bool   `yaml:"otel_insecure"`
}

// Default returns the configuration used when no file and no flags are given.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Threads:    defaults.ConcurrencyResolver,
			DNSServers: defaults.DefaultDNSServers(),
			DNSTimeout: duration.DNSTimeout,
			Attempts:   defaults.RetryDNS,
		},
		HTTP: HTTPConfig{
			Timeout:        duration.HTTPProbe,
			ConnectTimeout: duration.HTTPConnect,
			CrawlTimeout:   duration.HTTPCrawl,
			InjectTimeout:  duration.HTTPInject,
			UserAgent:      defaults.UserAgent(""),
			MaxRedirects:   defaults.MaxRedirects,
		},
		Crawl: CrawlConfig{
			Depth:       defaults.DepthCrawl,
			MaxPages:    defaults.MaxPagesPerHost,
			Concurrency: defaults.ConcurrencyCrawl,
		},
		Inject: InjectConfig{
			Concurrency: defaults.ConcurrencyInject,
			Filler:      defaults.FillerValue,
		},
		HostConcurrency: defaults.ConcurrencyHosts,
		Output:          OutputConfig{Dir: "reports"},
		Telemetry:       TelemetryConfig{OTelInsecure: true},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default; unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Resolver.Threads <= 0 {
		c.Resolver.Threads = def.Resolver.Threads
	}
	if len(c.Resolver.DNSServers) == 0 {
		c.Resolver.DNSServers = def.Resolver.DNSServers
	}
	if c.Resolver.DNSTimeout <= 0 {
		c.Resolver.DNSTimeout = def.Resolver.DNSTimeout
	}
	if c.Resolver.Attempts <= 0 {
		c.Resolver.Attempts = def.Resolver.Attempts
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = def.HTTP.Timeout
	}
	if c.HTTP.ConnectTimeout <= 0 {
		c.HTTP.ConnectTimeout = def.HTTP.ConnectTimeout
	}
	if c.HTTP.CrawlTimeout <= 0 {
		c.HTTP.CrawlTimeout = def.HTTP.CrawlTimeout
	}
	if c.HTTP.InjectTimeout <= 0 {
		c.HTTP.InjectTimeout = def.HTTP.InjectTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = def.HTTP.UserAgent
	}
	if c.HTTP.MaxRedirects == 0 {
		c.HTTP.MaxRedirects = def.HTTP.MaxRedirects
	}
	// A non-positive depth falls back to the default rather than disabling the crawl.
	if c.Crawl.Depth <= 0 {
		c.Crawl.Depth = def.Crawl.Depth
	}
	if c.Crawl.MaxPages <= 0 {
		c.Crawl.MaxPages = def.Crawl.MaxPages
	}
	if c.Crawl.Concurrency <= 0 {
		c.Crawl.Concurrency = def.Crawl.Concurrency
	}
	if c.Inject.Concurrency <= 0 {
		c.Inject.Concurrency = def.Inject.Concurrency
	}
	if c.Inject.Filler == "" {
		c.Inject.Filler = def.Inject.Filler
	}
	if c.HostConcurrency <= 0 {
		c.HostConcurrency = def.HostConcurrency
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalid or
// ErrMissingRequired.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("%w: domain", ErrMissingRequired)
	}
	if strings.ContainsAny(c.Domain, " /:") {
		return fmt.Errorf("%w: domain %q must be a bare hostname", ErrInvalid, c.Domain)
	}
	for name, v := range map[string]int{
		"resolver.threads":   c.Resolver.Threads,
		"host_concurrency":   c.HostConcurrency,
		"crawl.concurrency":  c.Crawl.Concurrency,
		"inject.concurrency": c.Inject.Concurrency,
	} {
		if v < 1 || v > defaults.ConcurrencyMax {
			return fmt.Errorf("%w: %s=%d out of range 1..%d", ErrInvalid, name, v, defaults.ConcurrencyMax)
		}
	}
	if c.Crawl.Depth > defaults.DepthMax {
		return fmt.Errorf("%w: crawl.depth=%d exceeds %d", ErrInvalid, c.Crawl.Depth, defaults.DepthMax)
	}
	if c.HTTP.Rate < 0 {
		return fmt.Errorf("%w: http.rate must not be negative", ErrInvalid)
	}
	if c.HTTP.Proxy != "" {
		u, err := url.Parse(c.HTTP.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: http.proxy %q", ErrInvalid, c.HTTP.Proxy)
		}
	}
	for _, s := range c.Resolver.DNSServers {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty dns server", ErrInvalid)
		}
	}
	return nil
}

// Pipeline converts the configuration into stage configurations. External
// payload lists are passed in already loaded.
func (c *Config) Pipeline(external map[finding.Class][]string) pipeline.Config {
	pc := pipeline.DefaultConfig()

	pc.DNS = probe.DNSConfig{
		Servers: c.Resolver.DNSServers,
		Timeout: c.Resolver.DNSTimeout,
		Retry:   retry.DNSConfig(),
	}
	pc.DNS.Retry.MaxAttempts = c.Resolver.Attempts

	pc.HTTP = httpclient.DefaultConfig()
	pc.HTTP.Timeout = c.HTTP.Timeout
	pc.HTTP.ConnectTimeout = c.HTTP.ConnectTimeout
	pc.HTTP.RatePerHost = c.HTTP.Rate
	pc.HTTP.Proxy = c.HTTP.Proxy
	pc.HTTP.UserAgent = c.HTTP.UserAgent
	pc.HTTP.MaxRedirects = c.HTTP.MaxRedirects

	pc.Resolver.Concurrency = c.Resolver.Threads
	pc.Resolver.Wildcard = c.Resolver.Wildcard

	pc.Crawl = crawler.DefaultConfig()
	pc.Crawl.MaxDepth = c.Crawl.Depth
	pc.Crawl.MaxPages = c.Crawl.MaxPages
	pc.Crawl.Concurrency = c.Crawl.Concurrency

	pc.Inject.Concurrency = c.Inject.Concurrency
	pc.Inject.Filler = c.Inject.Filler
	pc.Inject.External = external

	pc.HostConcurrency = c.HostConcurrency
	pc.CrawlTimeout = c.HTTP.CrawlTimeout
	pc.InjectTimeout = c.HTTP.InjectTimeout
	return pc
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}
