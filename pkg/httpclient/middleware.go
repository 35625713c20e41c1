package httpclient

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// middlewareTransport sets the User-Agent and applies the per-host rate
// limit before delegating to the base transport.
type middlewareTransport struct {
	base      http.RoundTripper
	userAgent string

	limit rate.Limit // 0 disables limiting
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newMiddleware(base http.RoundTripper, cfg Config) *middlewareTransport {
	m := &middlewareTransport{
		base:      base,
		userAgent: cfg.UserAgent,
		burst:     cfg.Burst,
		limiters:  make(map[string]*rate.Limiter),
	}
	if cfg.RatePerHost > 0 {
		m.limit = rate.Limit(cfg.RatePerHost)
	}
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if lim := m.limiter(req.URL.Host); lim != nil {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	r := req.Clone(req.Context())
	if m.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", m.userAgent)
	}
	return m.base.RoundTrip(r)
}

// limiter returns the token bucket for host, or nil when limiting is off.
func (m *middlewareTransport) limiter(host string) *rate.Limiter {
	if m.limit == 0 {
		return nil
	}
	host = strings.ToLower(host)

	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[host]
	if !ok {
		lim = rate.NewLimiter(m.limit, m.burst)
		m.limiters[host] = lim
	}
	return lim
}
