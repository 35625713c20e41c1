// Package probe holds the two network primitives every stage is built on:
// an A-record DNS query against explicit servers and a single HTTP request.
// Each call carries its own timeout, and retries are configuration passed in
// as a retry.Config rather than loops at the call site.
package probe

import (
	"errors"
	"log/slog"

	"github.com/vortexscan/vortex/pkg/hosterrors"
)

var (
	// ErrNoRecord is a permanent negative: NXDOMAIN or an answer with no A record.
	ErrNoRecord = errors.New("probe: no A record")

	// ErrNoServers means the resolver was built with an empty server list.
	ErrNoServers = errors.New("probe: no DNS servers configured")

	// ErrHostUnreachable is returned without a request once a host has
	// produced too many consecutive network errors in this run.
	ErrHostUnreachable = errors.New("probe: host marked unreachable")
)

type settings struct {
	logger *slog.Logger
	hosts  *hosterrors.Cache
}

// Option configures a DNSResolver or Fetcher.
type Option func(*settings)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHostErrors shares a per-run unreachable-host cache with the Fetcher.
func WithHostErrors(c *hosterrors.Cache) Option {
	return func(s *settings) { s.hosts = c }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
