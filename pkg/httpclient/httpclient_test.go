package httpclient

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Contains(t, cfg.UserAgent, "vortex/")
}

func TestNew_SetsUserAgent(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	client, err := New(Config{UserAgent: "vortex-test/1.0"})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "vortex-test/1.0", got.Load())
}

func TestNew_InsecureTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client, err := New(DefaultConfig())
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err, "self-signed certificate must be accepted")
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestNew_FollowsRedirectsUpToLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		if n < 20 {
			http.Redirect(w, r, "/?n="+strconv.Itoa(n+1), http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{MaxRedirects: 3})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL + "/?n=0")
	require.NoError(t, err, "exceeding the limit returns the last response, not an error")
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, int32(4), hits.Load())
}

func TestNew_ShortRedirectChainReachesTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(DefaultConfig())
	require.NoError(t, err)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/final", resp.Request.URL.Path)
}

func TestNew_InvalidProxy(t *testing.T) {
	_, err := New(Config{Proxy: "::not a url"})
	assert.Error(t, err)
}

func TestNew_RateLimitPerHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client, err := New(Config{RatePerHost: 20, Burst: 1})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	// burst 1 at 20/s: four waits of ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
