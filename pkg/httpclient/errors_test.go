package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  error
		label string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, ErrDNS, "dns"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrTimeout, "timeout"},
		{"refused text", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), ErrConnRefused, "refused"},
		{"tls text", errors.New("remote error: tls: handshake failure"), ErrTLS, "tls"},
		{"other", errors.New("unexpected EOF"), ErrNetwork, "network"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "original error must stay reachable")
			assert.Equal(t, tt.label, Label(tt.err))
		})
	}
}

func TestClassify_NilAndCanceled(t *testing.T) {
	assert.NoError(t, Classify(nil))
	assert.Equal(t, "", Label(nil))

	got := Classify(context.Canceled)
	assert.Equal(t, context.Canceled, got)
	assert.Equal(t, "canceled", Label(context.Canceled))
}

func TestClassify_Idempotent(t *testing.T) {
	once := Classify(context.DeadlineExceeded)
	twice := Classify(once)
	assert.Equal(t, once, twice)
}

func TestClassify_RealRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = client.Get(addr)
	require.Error(t, err)
	assert.ErrorIs(t, Classify(err), ErrConnRefused)
}
