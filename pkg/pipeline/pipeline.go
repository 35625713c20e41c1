// Package pipeline runs a complete scan: resolve the candidate hosts, crawl
// and inject every host that answered HTTP, and merge everything into one
// record per resolved host.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vortexscan/vortex/pkg/aggregate"
	"github.com/vortexscan/vortex/pkg/crawler"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/hosterrors"
	"github.com/vortexscan/vortex/pkg/httpclient"
	"github.com/vortexscan/vortex/pkg/injector"
	"github.com/vortexscan/vortex/pkg/metrics"
	"github.com/vortexscan/vortex/pkg/probe"
	"github.com/vortexscan/vortex/pkg/resolver"
	"github.com/vortexscan/vortex/pkg/tracing"
	"github.com/vortexscan/vortex/pkg/workerpool"
)

var (
	// ErrNoTargets is returned when no candidate host resolved.
	ErrNoTargets = errors.New("pipeline: no targets")

	// ErrHostPanic wraps a panic recovered while scanning one host.
	ErrHostPanic = errors.New("pipeline: host task panicked")
)

// Input is what a scan starts from.
type Input struct {
	// Domain is the root domain, always a candidate itself.
	Domain string

	// Labels are subdomain labels; blank entries are ignored.
	Labels []string
}

// Report is the result of one scan.
type Report struct {
	ScanID          string                        `json:"scan_id"`
	Domain          string                        `json:"domain"`
	StartedAt       time.Time                     `json:"started_at"`
	Duration        time.Duration                 `json:"-"`
	DurationSeconds float64                       `json:"duration_seconds"`
	Results         map[string]finding.ScanResult `json:"results"`
	Summary         aggregate.Summary             `json:"summary"`
}

// Progress receives stage events. Resolved is called from the resolver's
// collector goroutine and Scanned from the pipeline's, so neither method is
// called concurrently with itself.
type Progress interface {
	Stage(n int, name string)
	Resolved(t finding.Target)
	Scanned(host string, o aggregate.Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records scan metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithProgress reports stage events to p.
func WithProgress(p Progress) Option {
	return func(r *Runner) { r.progress = p }
}

// Runner runs scans. Hosts that keep failing at the network level are
// remembered for the Runner's lifetime, so use one Runner per scan.
type Runner struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Collector
	progress Progress
	tracer   trace.Tracer

	hosts    *hosterrors.Cache
	dns      *probe.DNSResolver
	resolver *resolver.Resolver
	crawler  *crawler.Crawler
	injector *injector.Injector

	hostFn func(ctx context.Context, t finding.Target) aggregate.Outcome
}

// New validates cfg and builds the stages. Zero config fields take
// defaults. It performs no network I/O.
func New(cfg Config, opts ...Option) (*Runner, error) {
	cfg.applyDefaults()
	r := &Runner{
		cfg:    cfg,
		logger: slog.Default(),
		tracer: tracing.Tracer(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.hosts = hosterrors.NewCache(cfg.MaxHostErrors)
	probeOpts := []probe.Option{probe.WithLogger(r.logger), probe.WithHostErrors(r.hosts)}

	r.dns = probe.NewDNSResolver(cfg.DNS, probeOpts...)
	if len(r.dns.Servers()) == 0 {
		return nil, fmt.Errorf("pipeline: %w", probe.ErrNoServers)
	}

	fetcher, err := probe.NewFetcher(cfg.HTTP, probeOpts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: http client: %w", err)
	}

	resolverOpts := []resolver.Option{resolver.WithLogger(r.logger)}
	if r.progress != nil {
		resolverOpts = append(resolverOpts, resolver.WithObserver(r.progress.Resolved))
	}
	r.resolver = resolver.New(r.dns, fetcher, cfg.Resolver, resolverOpts...)
	r.crawler = crawler.New(fetcher.WithTimeout(cfg.CrawlTimeout), cfg.Crawl, crawler.WithLogger(r.logger))
	r.injector = injector.New(fetcher.WithTimeout(cfg.InjectTimeout), cfg.Inject, injector.WithLogger(r.logger))
	r.hostFn = r.scanHost
	return r, nil
}

// Run scans in.Domain. When nothing resolves it returns an empty report
// together with ErrNoTargets. When ctx is canceled mid-scan the partial
// report is returned with the context error.
func (r *Runner) Run(ctx context.Context, in Input) (*Report, error) {
	started := time.Now()
	report := &Report{
		ScanID:    uuid.NewString(),
		Domain:    in.Domain,
		StartedAt: started.UTC(),
		Results:   make(map[string]finding.ScanResult),
	}
	defer func() {
		report.Duration = time.Since(started)
		report.DurationSeconds = report.Duration.Seconds()
		report.Summary = aggregate.Summarize(report.Results)
		r.metrics.Scan(report.Duration)
	}()

	ctx, span := r.tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.String("scan.id", report.ScanID),
		attribute.String("scan.domain", in.Domain),
	))
	defer span.End()

	log := r.logger.With(slog.String("scan_id", report.ScanID), slog.String("domain", in.Domain))

	candidates := resolver.Candidates(in.Domain, in.Labels)
	r.metrics.Candidates(len(candidates))
	if len(candidates) == 0 {
		span.SetStatus(codes.Error, "no candidates")
		return report, fmt.Errorf("%w: %q", ErrNoTargets, in.Domain)
	}

	log.Info("resolving", slog.Int("candidates", len(candidates)))
	r.stage(1, "subdomain discovery")
	targets := r.resolve(ctx, in)
	if len(targets) == 0 {
		span.SetStatus(codes.Error, "nothing resolved")
		return report, fmt.Errorf("%w: %s", ErrNoTargets, in.Domain)
	}

	r.stage(2, "crawl and injection")
	outcomes := r.scanHosts(ctx, targets)
	report.Results = aggregate.Merge(targets, outcomes)

	log.Info("scan complete",
		slog.Int("hosts", len(report.Results)),
		slog.Int("unreachable", r.hosts.Tripped()),
		slog.Duration("elapsed", time.Since(started)))

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	span.SetStatus(codes.Ok, "")
	return report, nil
}

func (r *Runner) stage(n int, name string) {
	if r.progress != nil {
		r.progress.Stage(n, name)
	}
}

func (r *Runner) resolve(ctx context.Context, in Input) map[string]finding.Target {
	ctx, span := r.tracer.Start(ctx, "resolve")
	defer span.End()

	targets := r.resolver.Resolve(ctx, in.Domain, in.Labels)
	st := r.resolver.Stats()

	span.SetAttributes(
		attribute.Int("resolve.candidates", st.Candidates),
		attribute.Int("resolve.web", st.Web),
		attribute.Int("resolve.dns_only", st.DNSOnly),
	)
	r.metrics.Hosts(st.Web, st.DNSOnly)
	r.metrics.Stage("resolve", st.Duration)
	r.logger.Info("resolver stage done",
		slog.Int("resolved", st.Resolved),
		slog.Int("web", st.Web),
		slog.Int("dns_only", st.DNSOnly),
		slog.Int64("dns_queries", r.dns.Queries()))
	return targets
}

type hostOutcome struct {
	host    string
	outcome aggregate.Outcome
}

// scanHosts crawls and injects every web target, at most HostConcurrency at
// a time. DNS-only targets get an empty outcome. Outcomes are collected by a
// single goroutine, the only writer of the returned map.
func (r *Runner) scanHosts(ctx context.Context, targets map[string]finding.Target) map[string]aggregate.Outcome {
	ctx, span := r.tracer.Start(ctx, "scan_hosts")
	defer span.End()
	start := time.Now()

	hosts := make([]string, 0, len(targets))
	for h := range targets {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	outcomes := make(map[string]aggregate.Outcome, len(targets))
	results := make(chan hostOutcome, defaults.ChannelSmall)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ho := range results {
			outcomes[ho.host] = ho.outcome
			if ho.outcome.Err != nil {
				r.metrics.HostFailure(httpclient.Label(ho.outcome.Err))
			}
			if r.progress != nil {
				r.progress.Scanned(ho.host, ho.outcome)
			}
		}
	}()

	pool := workerpool.New(r.cfg.HostConcurrency, workerpool.WithQueueSize(len(hosts)))
	web := 0
	for _, host := range hosts {
		host := host
		t := targets[host]
		if !t.Web() {
			results <- hostOutcome{host: host, outcome: aggregate.Outcome{}}
			continue
		}
		if ctx.Err() != nil {
			continue
		}
		web++
		pool.Submit(func() {
			results <- hostOutcome{host: host, outcome: r.safeScan(ctx, t)}
		})
	}
	pool.Close()
	close(results)
	<-done

	span.SetAttributes(attribute.Int("hosts.web", web))
	r.metrics.Stage("scan_hosts", time.Since(start))
	return outcomes
}

// safeScan runs the host task; a panic becomes the host's error.
func (r *Runner) safeScan(ctx context.Context, t finding.Target) (out aggregate.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = aggregate.Outcome{Err: fmt.Errorf("%w: %s: %v", ErrHostPanic, t.Host, p)}
			r.logger.Error("host task panicked",
				slog.String("host", t.Host),
				slog.Any("panic", p))
		}
	}()
	return r.hostFn(ctx, t)
}

// scanHost runs crawl then injection for one host.
func (r *Runner) scanHost(ctx context.Context, t finding.Target) aggregate.Outcome {
	ctx, span := r.tracer.Start(ctx, "host", trace.WithAttributes(
		attribute.String("host.name", t.Host),
		attribute.String("host.base_url", t.BaseURL),
	))
	defer span.End()

	log := r.logger.With(slog.String("host", t.Host))

	res, err := r.crawler.Crawl(ctx, t.BaseURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("crawl failed", slog.String("error", err.Error()))
		return aggregate.Outcome{Err: err}
	}
	r.metrics.Crawl(res.Pages, len(res.Forms))
	r.metrics.Stage("crawl", res.Duration)

	injectStart := time.Now()
	findings, st := r.injector.Inject(ctx, res.Forms)
	r.metrics.Injection(st.Requests, st.Inconclusive)
	r.metrics.Stage("inject", time.Since(injectStart))
	for _, f := range findings {
		r.metrics.Finding(f)
	}

	summaries := make([]finding.FormSummary, 0, len(res.Forms))
	for _, f := range res.Forms {
		summaries = append(summaries, f.Summary())
	}

	span.SetAttributes(
		attribute.Int("crawl.pages", res.Pages),
		attribute.Int("crawl.forms", len(res.Forms)),
		attribute.Int64("inject.requests", st.Requests),
		attribute.Int("inject.findings", len(findings)),
	)
	log.Info("host scanned",
		slog.Int("pages", res.Pages),
		slog.Int("forms", len(res.Forms)),
		slog.Int("findings", len(findings)))

	return aggregate.Outcome{
		FormCount: len(res.Forms),
		Forms:     summaries,
		Findings:  findings,
	}
}
