// Package httpclient builds the HTTP clients used by the probe primitives.
// Clients skip certificate verification, follow a bounded number of
// redirects, send a fixed User-Agent and can be rate limited per host.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total per-request timeout (default: 8s)
	Timeout time.Duration

	// ConnectTimeout bounds TCP connect and TLS handshake (default: 3s)
	ConnectTimeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification (default: true)
	InsecureSkipVerify bool

	// MaxRedirects is how many redirects are followed before the last
	// response is returned as-is (default: 10, negative disables following)
	MaxRedirects int

	// UserAgent is sent on every request (default: defaults.UserAgent(""))
	UserAgent string

	// RatePerHost caps requests per second to any single host (0 = unlimited)
	RatePerHost float64

	// Burst is the per-host token bucket size when RatePerHost is set (default: 1)
	Burst int

	// Proxy is an optional HTTP/HTTPS proxy URL
	Proxy string

	// MaxIdleConns is the maximum number of idle connections across all hosts (default: 100)
	MaxIdleConns int

	// MaxConnsPerHost is the maximum connections per host (default: 25)
	MaxConnsPerHost int
}

// DefaultConfig returns the probe configuration: 8s total, 3s connect,
// insecure TLS and 10 redirects.
func DefaultConfig() Config {
	return Config{
		Timeout:            duration.HTTPProbe,
		ConnectTimeout:     duration.HTTPConnect,
		InsecureSkipVerify: true,
		MaxRedirects:       defaults.MaxRedirects,
		UserAgent:          defaults.UserAgent(""),
		MaxIdleConns:       100,
		MaxConnsPerHost:    25,
	}
}

// New creates an HTTP client from cfg. Zero values take the defaults above.
// An unparseable proxy URL is an error.
func New(cfg Config) (*http.Client, error) {
	d := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = d.MaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = d.MaxIdleConns
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = d.MaxConnsPerHost
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       duration.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // scanners probe hosts with broken certificates
		},
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("httpclient: invalid proxy %q", cfg.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Transport:     newMiddleware(transport, cfg),
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectPolicy(cfg.MaxRedirects),
	}, nil
}

// redirectPolicy follows up to max redirects and then hands back the last
// response instead of failing the request.
func redirectPolicy(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if max < 0 || len(via) > max {
			return http.ErrUseLastResponse
		}
		return nil
	}
}
