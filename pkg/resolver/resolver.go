// Package resolver turns a root domain and a list of candidate labels into
// the set of live hosts: every candidate with an A record, annotated with the
// HTTP status it answers with over plain HTTP or HTTPS, or the DNS-only
// sentinel when neither scheme answers.
package resolver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/probe"
	"github.com/vortexscan/vortex/pkg/workerpool"
)

// Lookup answers A queries. *probe.DNSResolver implements it.
type Lookup interface {
	LookupA(ctx context.Context, host string) (string, error)
}

// Prober issues a single GET. *probe.Fetcher implements it.
type Prober interface {
	Get(ctx context.Context, rawURL string) (*probe.Page, error)
}

// Config configures the resolver stage.
type Config struct {
	// Concurrency is the number of workers (default: 50).
	Concurrency int

	// Wildcard enables wildcard DNS detection. Candidates other than the
	// root domain that resolve to the wildcard address are dropped.
	Wildcard bool
}

// DefaultConfig returns the stage defaults.
func DefaultConfig() Config {
	return Config{Concurrency: defaults.ConcurrencyResolver}
}

// Stats summarizes one Resolve call.
type Stats struct {
	Candidates int
	Resolved   int
	Web        int
	DNSOnly    int
	Wildcards  int
	Duration   time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers fn to be called from the collector goroutine for
// every host added to the result, in discovery order.
func WithObserver(fn func(finding.Target)) Option {
	return func(r *Resolver) { r.observe = fn }
}

// Resolver runs the resolver stage.
type Resolver struct {
	cfg     Config
	dns     Lookup
	http    Prober
	logger  *slog.Logger
	observe func(finding.Target)

	last atomic.Pointer[Stats]
}

// New creates a Resolver. Zero config fields take defaults.
func New(dns Lookup, http Prober, cfg Config, opts ...Option) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.ConcurrencyResolver
	}
	if cfg.Concurrency > defaults.ConcurrencyMax {
		cfg.Concurrency = defaults.ConcurrencyMax
	}
	r := &Resolver{
		cfg:    cfg,
		dns:    dns,
		http:   http,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns the statistics of the most recent Resolve call.
func (r *Resolver) Stats() Stats {
	if s := r.last.Load(); s != nil {
		return *s
	}
	return Stats{}
}

// Candidates returns the root domain followed by label.root for every
// non-blank label. Labels are trimmed of whitespace and dots and lowercased;
// duplicates collapse to their first occurrence.
func Candidates(root string, labels []string) []string {
	root = normalize(root)
	if root == "" {
		return nil
	}
	seen := map[string]bool{root: true}
	out := []string{root}
	for _, label := range labels {
		label = normalize(label)
		if label == "" {
			continue
		}
		host := label + "." + root
		if seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, host)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "."))
}

// Resolve resolves and probes every candidate and returns the hosts that
// have a DNS answer. Failures of individual candidates are dropped silently;
// the returned map is never nil but may be empty.
func (r *Resolver) Resolve(ctx context.Context, root string, labels []string) map[string]finding.Target {
	start := time.Now()
	candidates := Candidates(root, labels)
	stats := Stats{Candidates: len(candidates)}
	out := make(map[string]finding.Target, len(candidates))

	if len(candidates) == 0 {
		r.last.Store(&stats)
		return out
	}

	var wildcardIP string
	if r.cfg.Wildcard {
		wildcardIP = r.detectWildcard(ctx, candidates[0])
	}

	results := make(chan finding.Target, defaults.ChannelSmall)
	collected := make(chan struct{})

	// single writer for out and stats
	go func() {
		defer close(collected)
		for t := range results {
			if _, dup := out[t.Host]; dup {
				continue
			}
			out[t.Host] = t
			stats.Resolved++
			if t.Status.IsDNSOnly() {
				stats.DNSOnly++
			} else {
				stats.Web++
			}
			if r.observe != nil {
				r.observe(t)
			}
		}
	}()

	var wildcards atomic.Int64
	pool := workerpool.New(r.cfg.Concurrency,
		workerpool.WithQueueSize(len(candidates)),
		workerpool.WithPanicHandler(func(v any) {
			r.logger.Error("resolver task panicked", slog.Any("panic", v))
		}))

	rootHost := candidates[0]
	for _, host := range candidates {
		host := host
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			ip, err := r.dns.LookupA(ctx, host)
			if err != nil {
				r.logger.Debug("candidate dropped",
					slog.String("host", host),
					slog.String("error", err.Error()))
				return
			}
			if wildcardIP != "" && host != rootHost && ip == wildcardIP {
				wildcards.Add(1)
				return
			}
			results <- r.probe(ctx, host, ip)
		})
	}

	pool.Close()
	close(results)
	<-collected

	stats.Wildcards = int(wildcards.Load())
	stats.Duration = time.Since(start)
	r.last.Store(&stats)

	r.logger.Info("resolution complete",
		slog.String("domain", rootHost),
		slog.Int("candidates", stats.Candidates),
		slog.Int("resolved", stats.Resolved),
		slog.Int("web", stats.Web),
		slog.Int("dns_only", stats.DNSOnly))
	return out
}

// probe tries http then https and records whichever answered first.
func (r *Resolver) probe(ctx context.Context, host, ip string) finding.Target {
	t := finding.Target{Host: host, IP: ip, Status: finding.DNSOnly}

	for _, scheme := range []string{"http", "https"} {
		base := scheme + "://" + host
		page, err := r.http.Get(ctx, base)
		if err != nil {
			r.logger.Debug("probe failed",
				slog.String("url", base),
				slog.String("error", err.Error()))
			continue
		}
		t.Status = finding.StatusCode(page.StatusCode)
		t.BaseURL = baseURL(base, page.URL, host)
		return t
	}
	return t
}

// baseURL prefers the scheme of the final URL when a redirect stayed on the
// same host, so an http->https upgrade is crawled over https directly.
func baseURL(requested, final, host string) string {
	u, err := url.Parse(final)
	if err != nil || !strings.EqualFold(u.Hostname(), host) {
		return requested
	}
	return u.Scheme + "://" + u.Host
}

// detectWildcard resolves a random label under root and returns its
// address, or "" when the zone has no wildcard.
func (r *Resolver) detectWildcard(ctx context.Context, root string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	probeHost := "wc" + hex.EncodeToString(b) + "." + root
	ip, err := r.dns.LookupA(ctx, probeHost)
	if err != nil {
		return ""
	}
	r.logger.Info("wildcard DNS detected",
		slog.String("domain", root),
		slog.String("ip", ip))
	return ip
}
