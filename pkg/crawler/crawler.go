// Package crawler discovers HTML forms on a single host with a bounded-depth
// breadth-first crawl. Levels are processed strictly in order; pages within
// a level are fetched concurrently. The output is deduplicated by form
// signature and ordered by sensitivity score.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/probe"
)

// ErrInvalidBase is returned when the start URL is not an absolute http(s) URL.
var ErrInvalidBase = errors.New("crawler: invalid base URL")

// Fetcher issues a single GET. *probe.Fetcher implements it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*probe.Page, error)
}

// Config holds crawler configuration.
type Config struct {
	// MaxDepth is the number of levels processed; the start page is level 0,
	// so pages up to MaxDepth-1 hops away are fetched (default: 2).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxPages bounds the pages fetched per crawl (default: 200).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Concurrency is the per-level fetch semaphore width (default: 10).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// DisallowedExtensions are never enqueued (default: DisallowedExtensions).
	DisallowedExtensions []string `json:"disallowed_extensions,omitempty" yaml:"disallowed_extensions,omitempty"`
}

// DefaultConfig returns default crawler configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:             defaults.DepthCrawl,
		MaxPages:             defaults.MaxPagesPerHost,
		Concurrency:          defaults.ConcurrencyCrawl,
		DisallowedExtensions: DisallowedExtensions,
	}
}

// Result is the outcome of one crawl.
type Result struct {
	Forms    []Form
	Pages    int // pages fetched
	Visited  int // URLs marked visited
	Levels   int // levels processed
	Duration time.Duration
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Crawler performs form-discovery crawls. A Crawler holds no per-crawl
// state and may run crawls for several hosts concurrently.
type Crawler struct {
	config  Config
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates a Crawler. Zero config fields take defaults; MaxDepth <= 0
// falls back to the default depth.
func New(fetcher Fetcher, config Config, opts ...Option) *Crawler {
	d := DefaultConfig()
	if config.MaxDepth <= 0 {
		config.MaxDepth = d.MaxDepth
	}
	if config.MaxDepth > defaults.DepthMax {
		config.MaxDepth = defaults.DepthMax
	}
	if config.MaxPages <= 0 {
		config.MaxPages = d.MaxPages
	}
	if config.Concurrency <= 0 {
		config.Concurrency = d.Concurrency
	}
	if config.DisallowedExtensions == nil {
		config.DisallowedExtensions = d.DisallowedExtensions
	}
	c := &Crawler{
		config:  config,
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Crawler) Config() Config { return c.config }

// Crawl runs a breadth-first crawl from baseURL and returns the deduplicated,
// score-ordered forms. Per-page failures contribute nothing; only an invalid
// base URL is an error.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) (*Result, error) {
	start := time.Now()
	startURL := Canonical(baseURL)
	if startURL == "" {
		return nil, ErrInvalidBase
	}

	visited := map[string]bool{startURL: true}
	frontier := []CrawlTask{{URL: startURL, Depth: 0}}
	var forms []Form
	res := &Result{}

	for depth := 0; depth < c.config.MaxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			break
		}
		if remaining := c.config.MaxPages - res.Pages; len(frontier) > remaining {
			frontier = frontier[:remaining]
		}
		if len(frontier) == 0 {
			break
		}

		pages := c.fetchLevel(ctx, frontier)
		res.Pages += len(frontier)
		res.Levels++

		lastLevel := depth == c.config.MaxDepth-1
		var next []CrawlTask
		for _, p := range pages {
			forms = append(forms, p.forms...)
			if lastLevel {
				continue
			}
			for _, link := range p.links {
				if visited[link] || !allowedExtension(link, c.config.DisallowedExtensions) {
					continue
				}
				visited[link] = true
				next = append(next, CrawlTask{URL: link, Depth: depth + 1})
			}
		}

		c.logger.Debug("crawl level done",
			slog.String("base", startURL),
			slog.Int("depth", depth),
			slog.Int("fetched", len(frontier)),
			slog.Int("next", len(next)))
		frontier = next
	}

	res.Forms = Dedup(forms)
	res.Visited = len(visited)
	res.Duration = time.Since(start)
	return res, nil
}

// fetchLevel fetches every task concurrently, bounded by the semaphore,
// and returns the parsed pages in frontier order. The WaitGroup is the
// level barrier.
func (c *Crawler) fetchLevel(ctx context.Context, frontier []CrawlTask) []parsed {
	out := make([]parsed, len(frontier))
	sem := make(chan struct{}, c.config.Concurrency)
	var wg sync.WaitGroup

	for i, task := range frontier {
		i, task := i, task
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			out[i] = c.visit(ctx, task)
		}()
	}
	wg.Wait()
	return out
}

func (c *Crawler) visit(ctx context.Context, task CrawlTask) parsed {
	page, err := c.fetcher.Get(ctx, task.URL)
	if err != nil {
		c.logger.Debug("crawl fetch failed",
			slog.String("url", task.URL),
			slog.String("error", err.Error()))
		return parsed{}
	}
	if page.StatusCode != http.StatusOK || !page.IsHTML() {
		return parsed{}
	}
	return parsePage(page.Body, page.URL)
}
