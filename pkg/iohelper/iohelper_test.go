package iohelper

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    string
		wantCut bool
	}{
		{"under limit", "hello", 10, "hello", false},
		{"exact limit", "hello", 5, "hello", false},
		{"over limit", "hello world", 5, "hello", true},
		{"empty", "", 5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, cut, err := ReadBodyTruncated(strings.NewReader(tt.input), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
			assert.Equal(t, tt.wantCut, cut)

			plain, err := ReadBody(strings.NewReader(tt.input), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(plain))
		})
	}
}

func TestReadBody_NilReader(t *testing.T) {
	body, err := ReadBody(nil, 10)
	require.NoError(t, err)
	assert.NotNil(t, body)
	assert.Empty(t, body)
}

func TestReadBody_ZeroLimitUsesPageLimit(t *testing.T) {
	body, err := ReadBody(strings.NewReader("abc"), 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(body))
}

func TestReadPage_LogsTruncation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	big := strings.Repeat("a", int(PageMaxBodySize)+10)
	body, err := ReadPage(strings.NewReader(big), logger, "http://example.com/")
	require.NoError(t, err)
	assert.Len(t, body, int(PageMaxBodySize))
	assert.Contains(t, buf.String(), "page body truncated")
	assert.Contains(t, buf.String(), "http://example.com/")
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("leftover")}
	assert.NoError(t, DrainAndClose(rc))
	assert.True(t, rc.closed)

	assert.NoError(t, DrainAndClose(nil))
	assert.NoError(t, DrainAndClose(strings.NewReader("plain reader")))
}
