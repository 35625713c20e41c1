// Package duration provides canonical time constants for the scanner.
//
// Usage:
//
//	client := httpclient.New(httpclient.Config{Timeout: duration.HTTPProbe})
//	retry.Config{InitDelay: duration.DNSBackoff}
//
// Stages reference these constants instead of hardcoding time.Duration values.
package duration

import "time"

// ============================================================================
// DNS
// ============================================================================

const (
	// DNSTimeout bounds a single DNS query attempt (4s).
	DNSTimeout = 4 * time.Second

	// DNSBackoff is the pause between two DNS attempts (250ms).
	DNSBackoff = 250 * time.Millisecond

	// DNSMaxBackoff caps DNS backoff growth (1s).
	DNSMaxBackoff = 1 * time.Second
)

// ============================================================================
// HTTP
// ============================================================================

const (
	// HTTPProbe is the total timeout of the resolver's liveness GET (8s).
	HTTPProbe = 8 * time.Second

	// HTTPConnect bounds TCP connect and TLS handshake (3s).
	HTTPConnect = 3 * time.Second

	// HTTPCrawl is the total timeout of one crawl fetch (7s).
	HTTPCrawl = 7 * time.Second

	// HTTPInject is the total timeout of one injection request (5s).
	HTTPInject = 5 * time.Second

	// IdleConnTimeout is how long idle pooled connections are kept (90s).
	IdleConnTimeout = 90 * time.Second

	// KeepAlive is the TCP keep-alive period (30s).
	KeepAlive = 30 * time.Second
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// TelemetryConnect bounds exporter setup (10s).
	TelemetryConnect = 10 * time.Second

	// TelemetryShutdown bounds exporter flush on exit (5s).
	TelemetryShutdown = 5 * time.Second
)
