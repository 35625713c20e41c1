package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/duration"
	"github.com/vortexscan/vortex/pkg/retry"
)

// DNSConfig configures a DNSResolver.
type DNSConfig struct {
	// Servers are queried in rotation. Entries without a port get :53.
	// Default: defaults.DefaultDNSServers().
	Servers []string

	// Timeout bounds each individual query (default: 4s).
	Timeout time.Duration

	// Retry is the attempt policy (default: retry.DNSConfig()).
	Retry retry.Config
}

// DefaultDNSConfig returns the public-resolver configuration.
func DefaultDNSConfig() DNSConfig {
	return DNSConfig{
		Servers: defaults.DefaultDNSServers(),
		Timeout: duration.DNSTimeout,
		Retry:   retry.DNSConfig(),
	}
}

// DNSResolver answers A queries against an explicit list of servers.
// It is safe for concurrent use.
type DNSResolver struct {
	servers []string
	timeout time.Duration
	retry   retry.Config
	client  *dns.Client
	logger  *slog.Logger

	next    atomic.Uint32
	queries atomic.Int64
}

// NewDNSResolver builds a resolver from cfg. Zero fields take defaults.
func NewDNSResolver(cfg DNSConfig, opts ...Option) *DNSResolver {
	s := applyOptions(opts)
	def := DefaultDNSConfig()
	if len(cfg.Servers) == 0 {
		cfg.Servers = def.Servers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = def.Retry
	}

	servers := make([]string, 0, len(cfg.Servers))
	for _, srv := range cfg.Servers {
		if addr := serverAddr(srv); addr != "" {
			servers = append(servers, addr)
		}
	}

	return &DNSResolver{
		servers: servers,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		client:  &dns.Client{Net: "udp", Timeout: cfg.Timeout},
		logger:  s.logger,
	}
}

// serverAddr normalizes "1.1.1.1", "1.1.1.1:53" or "2606:4700::1111" to host:port.
func serverAddr(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(s); err == nil {
		return s
	}
	return net.JoinHostPort(strings.Trim(s, "[]"), "53")
}

// Servers returns the normalized server list.
func (r *DNSResolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// Queries returns the number of DNS exchanges attempted.
func (r *DNSResolver) Queries() int64 { return r.queries.Load() }

// LookupA returns the first A record for host. ErrNoRecord is returned
// immediately for NXDOMAIN or an empty answer; timeouts and server
// failures are retried on the next server per the retry policy.
func (r *DNSResolver) LookupA(ctx context.Context, host string) (string, error) {
	if len(r.servers) == 0 {
		return "", ErrNoServers
	}
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return "", ErrNoRecord
	}

	start := int(r.next.Add(1))
	var ip string
	err := retry.Do(ctx, r.retry, func(attempt int) error {
		server := r.servers[(start+attempt)%len(r.servers)]
		var err error
		ip, err = r.exchange(ctx, host, server)
		if err != nil {
			r.logger.Debug("dns query failed",
				slog.String("host", host),
				slog.String("server", server),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return ip, nil
}

func (r *DNSResolver) exchange(ctx context.Context, host, server string) (string, error) {
	r.queries.Add(1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	in, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", fmt.Errorf("probe: query %s via %s: %w", host, server, err)
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return "", retry.Stop(ErrNoRecord)
	default:
		return "", fmt.Errorf("probe: query %s via %s: rcode %s", host, server, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok && a.A != nil {
			return a.A.String(), nil
		}
	}
	return "", retry.Stop(ErrNoRecord)
}
