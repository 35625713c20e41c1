package wordlist

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Labels(t *testing.T) {
	in := "www\n\n  api  \r\n# comment\n.dev.\nshop\n"
	words, err := Read(strings.NewReader(in), Labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"www", "api", "dev", "shop"}, words)
}

func TestRead_Payloads(t *testing.T) {
	in := "' OR '1'='1\r\n\n ' OR 1=1-- \n#<script>\n"
	words, err := Read(strings.NewReader(in), Payloads)
	require.NoError(t, err)
	assert.Equal(t, []string{"' OR '1'='1", " ' OR 1=1-- ", "#<script>"}, words)
}

func TestRead_LineTooLong(t *testing.T) {
	_, err := Read(strings.NewReader(strings.Repeat("a", maxLineSize+1)), Labels)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.txt")
	require.NoError(t, os.WriteFile(path, []byte("www\nmail\n"), 0o600))

	wl, err := Load(path, Labels)
	require.NoError(t, err)
	assert.Equal(t, "subs.txt", wl.Name)
	assert.Equal(t, 2, wl.Size())
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("api\nstaging\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	wl, err := Load(path, Labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "staging"}, wl.Words)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"), Labels)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o600))
	_, err = Load(bad, Labels)
	assert.Error(t, err)
}

func TestSubdomains(t *testing.T) {
	list := Subdomains()
	assert.Contains(t, list, "www")
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}
}
