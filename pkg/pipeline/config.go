package pipeline

import (
	"time"

	"github.com/vortexscan/vortex/pkg/crawler"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/duration"
	"github.com/vortexscan/vortex/pkg/httpclient"
	"github.com/vortexscan/vortex/pkg/injector"
	"github.com/vortexscan/vortex/pkg/probe"
	"github.com/vortexscan/vortex/pkg/resolver"
)

// Config gathers the stage configurations of one scan.
type Config struct {
	DNS      probe.DNSConfig
	HTTP     httpclient.Config
	Resolver resolver.Config
	Crawl    crawler.Config
	Inject   injector.Config

	// HostConcurrency bounds how many hosts are crawled and injected
	// at once (default: 5).
	HostConcurrency int

	// CrawlTimeout and InjectTimeout are the per-request deadlines of the
	// crawl and injection stages (defaults: 7s and 5s). HTTP.Timeout is
	// the resolver probe deadline.
	CrawlTimeout  time.Duration
	InjectTimeout time.Duration

	// MaxHostErrors is the consecutive network failure count after which a
	// host is skipped for the rest of the run (default: 5).
	MaxHostErrors int
}

// DefaultConfig returns the defaults of every stage.
func DefaultConfig() Config {
	return Config{
		DNS:             probe.DefaultDNSConfig(),
		HTTP:            httpclient.DefaultConfig(),
		Resolver:        resolver.DefaultConfig(),
		Crawl:           crawler.DefaultConfig(),
		Inject:          injector.DefaultConfig(),
		HostConcurrency: defaults.ConcurrencyHosts,
		CrawlTimeout:    duration.HTTPCrawl,
		InjectTimeout:   duration.HTTPInject,
		MaxHostErrors:   defaults.MaxHostErrors,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = def.HTTP.Timeout
	}
	if c.HTTP.ConnectTimeout <= 0 {
		c.HTTP.ConnectTimeout = def.HTTP.ConnectTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = def.HTTP.UserAgent
	}
	if c.HostConcurrency <= 0 {
		c.HostConcurrency = def.HostConcurrency
	}
	if c.HostConcurrency > defaults.ConcurrencyMax {
		c.HostConcurrency = defaults.ConcurrencyMax
	}
	if c.CrawlTimeout <= 0 {
		c.CrawlTimeout = def.CrawlTimeout
	}
	if c.InjectTimeout <= 0 {
		c.InjectTimeout = def.InjectTimeout
	}
	if c.MaxHostErrors <= 0 {
		c.MaxHostErrors = def.MaxHostErrors
	}
}
