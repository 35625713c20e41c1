// Package testutil provides shared test helpers: an in-process DNS server,
// fault-injecting writers and deadlock/leak assertions.
package testutil

import (
	"errors"
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// ErrFault is the sentinel error returned by fault injection helpers.
var ErrFault = errors.New("injected fault")

// FailingWriter is an io.Writer that fails after Limit bytes written.
// If Limit is 0, every Write call fails immediately.
type FailingWriter struct {
	written int
	Limit   int
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.Limit {
		remaining := w.Limit - w.written
		if remaining > 0 {
			w.written += remaining
			return remaining, ErrFault
		}
		return 0, ErrFault
	}
	w.written += len(p)
	return len(p), nil
}

// DNSServer is a UDP DNS server on 127.0.0.1 answering A queries from a
// fixed zone. Names missing from the zone get NXDOMAIN.
type DNSServer struct {
	Addr string

	mu      sync.RWMutex
	records map[string]string // fqdn -> ipv4
	fail    map[string]int    // fqdn -> rcode
	wild    string            // ipv4 answered for any name under wildZone
	zone    string

	queries atomic.Int64
	srv     *dns.Server
}

// NewDNSServer starts a server and registers its shutdown with t.Cleanup.
// records maps hostnames (with or without the trailing dot) to IPv4 strings.
func NewDNSServer(t *testing.T, records map[string]string) *DNSServer {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("dns listen: %v", err)
	}

	s := &DNSServer{
		Addr:    pc.LocalAddr().String(),
		records: make(map[string]string),
		fail:    make(map[string]int),
	}
	for name, ip := range records {
		s.records[dns.Fqdn(strings.ToLower(name))] = ip
	}

	started := make(chan struct{})
	s.srv = &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(s.serve),
		NotifyStartedFunc: func() { close(started) },
	}
	go func() { _ = s.srv.ActivateAndServe() }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	t.Cleanup(func() { _ = s.srv.Shutdown() })
	return s
}

// Set adds or replaces an A record.
func (s *DNSServer) Set(name, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[dns.Fqdn(strings.ToLower(name))] = ip
}

// FailWith makes queries for name answer with rcode (e.g. dns.RcodeServerFailure).
func (s *DNSServer) FailWith(name string, rcode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[dns.Fqdn(strings.ToLower(name))] = rcode
}

// Wildcard answers ip for every name under zone that has no explicit record.
func (s *DNSServer) Wildcard(zone, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zone = dns.Fqdn(strings.ToLower(zone))
	s.wild = ip
}

// Queries returns how many queries the server has received.
func (s *DNSServer) Queries() int64 { return s.queries.Load() }

func (s *DNSServer) serve(w dns.ResponseWriter, req *dns.Msg) {
	s.queries.Add(1)

	m := new(dns.Msg)
	m.SetReply(req)
	if len(req.Question) == 0 {
		m.Rcode = dns.RcodeFormatError
		_ = w.WriteMsg(m)
		return
	}
	q := req.Question[0]
	name := strings.ToLower(q.Name)

	s.mu.RLock()
	rcode, failing := s.fail[name]
	ip, ok := s.records[name]
	if !ok && s.wild != "" && strings.HasSuffix(name, "."+s.zone) {
		ip, ok = s.wild, true
	}
	s.mu.RUnlock()

	switch {
	case failing:
		m.Rcode = rcode
	case !ok:
		m.Rcode = dns.RcodeNameError
	case q.Qtype == dns.TypeA:
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
			A:   net.ParseIP(ip).To4(),
		})
	}
	_ = w.WriteMsg(m)
}

// AssertTimeout runs fn and fails if it doesn't complete within d.
func AssertTimeout(t *testing.T, name string, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s: timed out after %v (possible deadlock)", name, d)
	}
}

// GoroutineTracker captures goroutine count before/after a test to detect leaks.
type GoroutineTracker struct {
	before int
}

// TrackGoroutines snapshots the current goroutine count. Call CheckLeaks after.
func TrackGoroutines() *GoroutineTracker {
	runtime.Gosched()
	return &GoroutineTracker{before: runtime.NumGoroutine()}
}

// CheckLeaks waits briefly for goroutines to drain, then fails the test if
// more goroutines are running than when tracking started.
func (g *GoroutineTracker) CheckLeaks(t *testing.T, tolerance int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= g.before+tolerance {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > g.before+tolerance {
		t.Errorf("goroutine leak: before=%d after=%d tolerance=%d", g.before, after, tolerance)
	}
}
