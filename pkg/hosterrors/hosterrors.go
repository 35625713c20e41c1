// Package hosterrors tracks consecutive network failures per host during a
// scan run. Once a host reaches the threshold, callers skip further requests
// to it and treat them as inconclusive, the same way a timeout is treated.
//
// A Cache is scoped to one run; nothing is shared between runs.
//
// Usage:
//
//	if cache.Check(u) {
//	    return ErrHostUnreachable
//	}
//	resp, err := client.Do(req)
//	if hosterrors.IsNetworkError(err) {
//	    cache.MarkError(u)
//	} else {
//	    cache.MarkSuccess(u)
//	}
package hosterrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vortexscan/vortex/pkg/defaults"
)

// Cache counts consecutive network errors per host.
type Cache struct {
	mu        sync.Mutex
	counts    map[string]int
	maxErrors int

	skipped atomic.Int64
}

// NewCache creates a cache that trips after maxErrors consecutive failures.
// maxErrors <= 0 uses defaults.MaxHostErrors.
func NewCache(maxErrors int) *Cache {
	if maxErrors <= 0 {
		maxErrors = defaults.MaxHostErrors
	}
	return &Cache{
		counts:    make(map[string]int),
		maxErrors: maxErrors,
	}
}

// MarkError records a failure and reports whether the host is now tripped.
func (c *Cache) MarkError(target string) bool {
	host := normalizeHost(target)
	if host == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[host]++
	return c.counts[host] >= c.maxErrors
}

// MarkSuccess resets the consecutive count unless the host already tripped.
// A tripped host stays tripped for the rest of the run.
func (c *Cache) MarkSuccess(target string) {
	host := normalizeHost(target)
	if host == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.counts[host]; ok && n < c.maxErrors {
		delete(c.counts, host)
	}
}

// Check reports whether requests to the host should be skipped.
func (c *Cache) Check(target string) bool {
	host := normalizeHost(target)
	if host == "" {
		return false
	}
	c.mu.Lock()
	tripped := c.counts[host] >= c.maxErrors
	c.mu.Unlock()
	if tripped {
		c.skipped.Add(1)
	}
	return tripped
}

// Tripped returns the number of hosts currently over the threshold.
func (c *Cache) Tripped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, count := range c.counts {
		if count >= c.maxErrors {
			n++
		}
	}
	return n
}

// Skipped returns how many Check calls answered "skip".
func (c *Cache) Skipped() int64 {
	return c.skipped.Load()
}

// normalizeHost extracts the lowercase host (without port) from a URL or
// host string.
func normalizeHost(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if strings.Contains(input, "://") {
		if u, err := url.Parse(input); err == nil && u.Host != "" {
			input = u.Host
		}
	}
	host, _, err := net.SplitHostPort(input)
	if err != nil {
		host = input
	}
	return strings.ToLower(host)
}

// IsNetworkError reports whether err is a transport-level failure that says
// something about the host's reachability. Caller cancellation does not.
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"no route to host",
		"network is unreachable",
		"i/o timeout",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
