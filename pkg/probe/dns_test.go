package probe

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexscan/vortex/pkg/retry"
	"github.com/vortexscan/vortex/pkg/testutil"
)

func newTestResolver(servers ...string) *DNSResolver {
	return NewDNSResolver(DNSConfig{
		Servers: servers,
		Timeout: 500 * time.Millisecond,
		Retry:   retry.Config{MaxAttempts: 2, InitDelay: time.Millisecond},
	})
}

func TestLookupA_Found(t *testing.T) {
	srv := testutil.NewDNSServer(t, map[string]string{"www.example.com": "192.0.2.10"})
	r := newTestResolver(srv.Addr)

	ip, err := r.LookupA(context.Background(), "WWW.example.com.")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", ip)
}

func TestLookupA_NXDOMAINIsNotRetried(t *testing.T) {
	srv := testutil.NewDNSServer(t, nil)
	r := newTestResolver(srv.Addr)

	_, err := r.LookupA(context.Background(), "missing.example.com")
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, int64(1), srv.Queries())
}

func TestLookupA_ServerFailureRetriedOnNextServer(t *testing.T) {
	bad := testutil.NewDNSServer(t, nil)
	bad.FailWith("api.example.com", dns.RcodeServerFailure)
	good := testutil.NewDNSServer(t, map[string]string{"api.example.com": "192.0.2.20"})

	r := newTestResolver(bad.Addr, good.Addr)

	// rotation picks a different starting server per call; two calls are
	// enough to start once on each
	for i := 0; i < 2; i++ {
		ip, err := r.LookupA(context.Background(), "api.example.com")
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.20", ip)
	}
	assert.Equal(t, int64(1), bad.Queries())
}

func TestLookupA_AttemptsBounded(t *testing.T) {
	srv := testutil.NewDNSServer(t, nil)
	srv.FailWith("flaky.example.com", dns.RcodeServerFailure)
	r := newTestResolver(srv.Addr)

	_, err := r.LookupA(context.Background(), "flaky.example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, int64(2), srv.Queries())
	assert.Equal(t, int64(2), r.Queries())
}

func TestLookupA_UnreachableServerTimesOut(t *testing.T) {
	// nothing listens on this port; UDP gives no refusal so each attempt
	// runs into its own timeout
	r := NewDNSResolver(DNSConfig{
		Servers: []string{"127.0.0.1:1"},
		Timeout: 100 * time.Millisecond,
		Retry:   retry.Config{MaxAttempts: 2, InitDelay: time.Millisecond},
	})

	start := time.Now()
	_, err := r.LookupA(context.Background(), "www.example.com")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLookupA_EmptyHost(t *testing.T) {
	r := newTestResolver("127.0.0.1:53")
	_, err := r.LookupA(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestLookupA_CanceledContext(t *testing.T) {
	srv := testutil.NewDNSServer(t, map[string]string{"www.example.com": "192.0.2.10"})
	r := newTestResolver(srv.Addr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.LookupA(ctx, "www.example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDNSResolver_Defaults(t *testing.T) {
	r := NewDNSResolver(DNSConfig{})
	servers := r.Servers()
	require.Len(t, servers, 5)
	assert.Equal(t, "1.1.1.1:53", servers[0])
	assert.Equal(t, 4*time.Second, r.timeout)
	assert.Equal(t, 2, r.retry.MaxAttempts)
}

func TestServerAddr(t *testing.T) {
	tests := map[string]string{
		"8.8.8.8":         "8.8.8.8:53",
		"8.8.8.8:5353":    "8.8.8.8:5353",
		"2606:4700::1111": "[2606:4700::1111]:53",
		"[::1]:53":        "[::1]:53",
		"  ":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, serverAddr(in), in)
	}
}

func TestLookupA_NoServers(t *testing.T) {
	r := &DNSResolver{}
	_, err := r.LookupA(context.Background(), "a.example.com")
	assert.ErrorIs(t, err, ErrNoServers)
}
