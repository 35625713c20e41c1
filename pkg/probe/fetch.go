package probe

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vortexscan/vortex/pkg/defaults"
	"github.com/vortexscan/vortex/pkg/hosterrors"
	"github.com/vortexscan/vortex/pkg/httpclient"
	"github.com/vortexscan/vortex/pkg/iohelper"
)

// Page is the result of one HTTP request.
type Page struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsHTML reports whether the page declared an HTML or XHTML media type.
func (p *Page) IsHTML() bool {
	if p == nil {
		return false
	}
	mt, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(p.ContentType, ";")[0]))
	}
	return mt == defaults.ContentTypeHTML || mt == defaults.ContentTypeXHTML
}

// Fetcher issues single HTTP requests with a per-request timeout and a
// capped body read. Copies made with WithTimeout share the connection pool
// and the unreachable-host cache.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
	hosts   *hosterrors.Cache
	logger  *slog.Logger
}

// NewFetcher builds a Fetcher over an httpclient configured by cfg.
func NewFetcher(cfg httpclient.Config, opts ...Option) (*Fetcher, error) {
	client, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	s := applyOptions(opts)
	return &Fetcher{
		client:  client,
		timeout: client.Timeout,
		maxBody: iohelper.PageMaxBodySize,
		hosts:   s.hosts,
		logger:  s.logger,
	}, nil
}

// WithTimeout returns a copy whose requests use d as their own deadline.
func (f *Fetcher) WithTimeout(d time.Duration) *Fetcher {
	c := *f
	if d > 0 {
		c.timeout = d
	}
	return &c
}

// WithMaxBody returns a copy that reads at most n body bytes.
func (f *Fetcher) WithMaxBody(n int64) *Fetcher {
	c := *f
	if n > 0 {
		c.maxBody = n
	}
	return &c
}

// Timeout returns the per-request deadline.
func (f *Fetcher) Timeout() time.Duration { return f.timeout }

// Get fetches rawURL.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: build request: %w", err)
	}
	req.Header.Set("Accept", defaults.AcceptHTML)
	return f.do(ctx, req)
}

// Submit sends values to target the way a browser submits a form: POST as
// an urlencoded body, any other method as a GET whose query is the target's
// existing query overlaid with values.
func (f *Fetcher) Submit(ctx context.Context, method, target string, values url.Values) (*Page, error) {
	var req *http.Request
	var err error

	if strings.EqualFold(method, http.MethodPost) {
		req, err = http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", defaults.ContentTypeForm)
		}
	} else {
		var u *url.URL
		u, err = url.Parse(target)
		if err == nil {
			u.RawQuery = MergeQuery(u.Query(), values).Encode()
			req, err = http.NewRequest(http.MethodGet, u.String(), nil)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("probe: build request: %w", err)
	}
	req.Header.Set("Accept", defaults.AcceptHTML)
	return f.do(ctx, req)
}

// MergeQuery returns base with every key in overlay replaced by overlay's values.
func MergeQuery(base, overlay url.Values) url.Values {
	out := make(url.Values, len(base)+len(overlay))
	for k, vs := range base {
		out[k] = append([]string(nil), vs...)
	}
	for k, vs := range overlay {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (f *Fetcher) do(ctx context.Context, req *http.Request) (*Page, error) {
	host := req.URL.Host
	if f.hosts != nil && f.hosts.Check(host) {
		return nil, ErrHostUnreachable
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		if f.hosts != nil && hosterrors.IsNetworkError(err) {
			if f.hosts.MarkError(host) {
				f.logger.Debug("host marked unreachable", slog.String("host", host))
			}
		}
		return nil, httpclient.Classify(err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	finalURL := req.URL.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := iohelper.ReadBody(resp.Body, f.maxBody)
	if err != nil {
		f.logger.Debug("body read failed",
			slog.String("url", finalURL),
			slog.String("error", err.Error()))
	}
	if f.hosts != nil {
		f.hosts.MarkSuccess(host)
	}

	return &Page{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
