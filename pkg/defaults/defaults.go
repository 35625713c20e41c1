// Package defaults provides canonical default values for the scanner.
// Stages reference these constants instead of hardcoding numbers so the
// CLI, the config file and the library share one set of defaults.
//
// Usage:
//
//	cfg.Concurrency = defaults.ConcurrencyResolver
//	req.Header.Set("Content-Type", defaults.ContentTypeForm)
package defaults

import "fmt"

// Version is the current vortex version.
const Version = "1.2.0"

// ToolName is used for the User-Agent, metric prefixes and tracer names.
const ToolName = "vortex"

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================

const (
	// ConcurrencyResolver is the resolver worker count (50).
	ConcurrencyResolver = 50

	// ConcurrencyCrawl bounds concurrent fetches within one crawl level (10).
	ConcurrencyCrawl = 10

	// ConcurrencyInject bounds concurrent injection tasks per host (10).
	ConcurrencyInject = 10

	// ConcurrencyHosts bounds how many hosts are crawled and injected at once (5).
	ConcurrencyHosts = 5

	// ConcurrencyMax caps any user-supplied worker count (500).
	ConcurrencyMax = 500
)

// ============================================================================
// RETRY SETTINGS
// ============================================================================

const (
	// RetryNone disables retries (1 attempt).
	RetryNone = 1

	// RetryDNS is the total number of DNS attempts per candidate (2).
	RetryDNS = 2
)

// ============================================================================
// LIMITS
// ============================================================================

const (
	// DepthCrawl is the default number of crawl levels (2).
	DepthCrawl = 2

	// DepthMax caps the crawl depth (10).
	DepthMax = 10

	// MaxPagesPerHost bounds the number of fetched pages per crawl (200).
	MaxPagesPerHost = 200

	// MaxHostErrors is the consecutive network error count after which a
	// host is considered unreachable for the rest of the run (5).
	MaxHostErrors = 5

	// MaxRedirects is the redirect hop limit for followed redirects (10).
	MaxRedirects = 10

	// RateLimitNone disables per-host request pacing.
	RateLimitNone = 0
)

// ============================================================================
// CHANNEL SIZES
// ============================================================================

const (
	// ChannelSmall is for result channels with one consumer (100).
	ChannelSmall = 100
)

// ============================================================================
// HTTP
// ============================================================================

const (
	// ContentTypeForm is the encoding used for POST form submissions.
	ContentTypeForm = "application/x-www-form-urlencoded"

	// ContentTypeHTML is the only content type the crawler parses.
	ContentTypeHTML = "text/html"

	// ContentTypeXHTML is accepted as HTML too.
	ContentTypeXHTML = "application/xhtml+xml"

	// AcceptHTML is sent by the crawler.
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// FillerValue is submitted for form fields without a default value.
	FillerValue = "test"
)

// UserAgent returns the vortex user agent, optionally tagged with the
// component issuing the request.
func UserAgent(component string) string {
	if component == "" {
		return fmt.Sprintf("%s/%s (Security Audit)", ToolName, Version)
	}
	return fmt.Sprintf("%s/%s (Security Audit; %s)", ToolName, Version, component)
}

// DefaultDNSServers are the public resolvers queried when none are configured.
func DefaultDNSServers() []string {
	return []string{
		"1.1.1.1", // Cloudflare
		"8.8.8.8", // Google
		"1.0.0.1", // Cloudflare
		"8.8.4.4", // Google
		"9.9.9.9", // Quad9
	}
}
