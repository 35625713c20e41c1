// Package injector submits attack payloads through discovered forms and
// reports the first confirmed signal per form and vulnerability class.
//
// For every (form, class) pair the built-in payloads are tried in order,
// then the external payloads only if the built-in list found nothing. The
// first payload that triggers the detector ends the pair. Network errors
// are inconclusive and never end a pair.
package injector

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/vortexscan/vortex/pkg/crawler"
	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/probe"
	"github.com/vortexscan/vortex/pkg/sqli"
	"github.com/vortexscan/vortex/pkg/xss"
)

// Submitter sends form values. *probe.Fetcher implements it.
type Submitter interface {
	Submit(ctx context.Context, method, target string, values url.Values) (*probe.Page, error)
}

// Detector recognizes one vulnerability class in a response.
type Detector interface {
	Class() finding.Class
	Payloads() []string
	Detect(body []byte, payload string) (evidence string, ok bool)
}

// DefaultDetectors returns the SQL injection and reflected XSS detectors.
func DefaultDetectors() []Detector {
	return []Detector{sqli.Detector{}, xss.Detector{}}
}

// Config configures the injection stage.
type Config struct {
	// Concurrency is the per-host semaphore width shared by all
	// (form, class) tasks (default: 10).
	Concurrency int

	// External holds optional extra payloads per class, tried only when
	// the built-in payloads found nothing.
	External map[finding.Class][]string

	// Filler is submitted for non-payload fields without a default value
	// (default: "test").
	Filler string
}

// DefaultConfig returns the stage defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: defaults.ConcurrencyInject,
		Filler:      defaults.FillerValue,
	}
}

// Stats counts the work done by one Inject call.
type Stats struct {
	Tasks        int
	Skipped      int
	Requests     int64
	Inconclusive int64
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(in *Injector) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithDetectors replaces the detector set.
func WithDetectors(ds ...Detector) Option {
	return func(in *Injector) { in.detectors = ds }
}

// Injector runs the injection stage. It holds no per-host state and may
// serve several hosts concurrently.
type Injector struct {
	config    Config
	submitter Submitter
	detectors []Detector
	logger    *slog.Logger
}

// New creates an Injector. Zero config fields take defaults.
func New(s Submitter, cfg Config, opts ...Option) *Injector {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.ConcurrencyInject
	}
	if cfg.Filler == "" {
		cfg.Filler = defaults.FillerValue
	}
	in := &Injector{
		config:    cfg,
		submitter: s,
		detectors: DefaultDetectors(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Inject tests every form against every detector and returns the findings
// in form order, SQL injection before XSS within a form. At most one
// finding is produced per (form, class).
func (in *Injector) Inject(ctx context.Context, forms []crawler.Form) ([]finding.Finding, Stats) {
	type slot struct {
		f  finding.Finding
		ok bool
	}
	results := make([]slot, len(forms)*len(in.detectors))
	var stats Stats
	var requests, inconclusive atomic.Int64

	sem := make(chan struct{}, in.config.Concurrency)
	var wg sync.WaitGroup

	for fi, form := range forms {
		fi, form := fi, form
		if _, ok := form.FirstTextInput(); !ok || form.Action == "" {
			stats.Skipped += len(in.detectors)
			continue
		}
		for di, det := range in.detectors {
			di, det := di, det
			stats.Tasks++
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()

				f, ok := in.testPair(ctx, form, det, &requests, &inconclusive)
				results[fi*len(in.detectors)+di] = slot{f, ok}
			}()
		}
	}
	wg.Wait()

	stats.Requests = requests.Load()
	stats.Inconclusive = inconclusive.Load()

	out := make([]finding.Finding, 0)
	for _, r := range results {
		if r.ok {
			out = append(out, r.f)
		}
	}
	return out, stats
}

// testPair walks the payload lists for one (form, class) and stops at the
// first detection.
func (in *Injector) testPair(ctx context.Context, form crawler.Form, det Detector, requests, inconclusive *atomic.Int64) (finding.Finding, bool) {
	idx, _ := form.FirstTextInput()
	param := form.Inputs[idx].Name

	lists := [][]string{det.Payloads(), in.config.External[det.Class()]}
	for _, payloads := range lists {
		for _, payload := range payloads {
			if ctx.Err() != nil {
				return finding.Finding{}, false
			}
			requests.Add(1)
			page, err := in.submitter.Submit(ctx, form.Method, form.Action, BuildValues(form, idx, payload, in.config.Filler))
			if err != nil {
				inconclusive.Add(1)
				in.logger.Debug("injection request failed",
					slog.String("action", form.Action),
					slog.String("class", det.Class().String()),
					slog.String("error", err.Error()))
				continue
			}
			if evidence, ok := det.Detect(page.Body, payload); ok {
				in.logger.Info("finding",
					slog.String("class", det.Class().String()),
					slog.String("action", form.Action),
					slog.String("parameter", param))
				return finding.Finding{
					Class:     det.Class(),
					TargetURL: form.Action,
					Parameter: param,
					Payload:   payload,
					Method:    form.Method,
					Severity:  det.Class().Severity(),
					Evidence:  evidence,
				}, true
			}
		}
	}
	return finding.Finding{}, false
}

// BuildValues fills the form: the input at payloadIdx gets payload, every
// other input its recorded value or filler when that is empty.
func BuildValues(form crawler.Form, payloadIdx int, payload, filler string) url.Values {
	values := make(url.Values, len(form.Inputs))
	for i, field := range form.Inputs {
		switch {
		case i == payloadIdx:
			values.Set(field.Name, payload)
		case field.Value != "":
			values.Add(field.Name, field.Value)
		default:
			values.Add(field.Name, filler)
		}
	}
	return values
}
