// Package wordlist loads subdomain labels and payload lists from files and
// provides the built-in subdomain list.
package wordlist

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single line; longer lines are a read error.
const maxLineSize = 1024 * 1024

// Wordlist is a loaded list.
type Wordlist struct {
	Name  string
	Path  string
	Words []string
}

// Size returns the number of entries.
func (w *Wordlist) Size() int { return len(w.Words) }

// Mode selects how lines are normalized.
type Mode int

const (
	// Labels trims whitespace and dots and skips blank lines and
	// '#' comments.
	Labels Mode = iota

	// Payloads keeps every non-empty line verbatim apart from the line
	// terminator. Leading spaces and '#' are significant in payloads.
	Payloads
)

// Load reads path. Files ending in ".gz" are decompressed.
func Load(path string, mode Mode) (*Wordlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordlist: open: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("wordlist: gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	words, err := Read(r, mode)
	if err != nil {
		return nil, fmt.Errorf("wordlist: %s: %w", path, err)
	}
	slog.Debug("wordlist loaded",
		slog.String("path", path),
		slog.Int("entries", len(words)))

	return &Wordlist{
		Name:  filepath.Base(path),
		Path:  path,
		Words: words,
	}, nil
}

// Read reads one entry per line from r.
func Read(r io.Reader, mode Mode) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		switch mode {
		case Payloads:
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
		default:
			line = strings.Trim(strings.TrimSpace(line), ".")
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return words, nil
}

// Subdomains returns the built-in list of common subdomain labels, used
// when no wordlist file is given.
func Subdomains() []string {
	return []string{
		"www", "mail", "ftp", "localhost", "webmail", "smtp", "pop",
		"ns1", "ns2", "ns3", "ns4", "dns", "dns1", "dns2",
		"mx", "mx1", "mx2", "email", "remote", "blog", "shop",
		"api", "dev", "staging", "test", "qa", "uat", "prod",
		"admin", "administrator", "portal", "gateway", "vpn", "secure",
		"app", "apps", "mobile", "m", "wap", "cdn", "static",
		"assets", "img", "images", "media", "video", "download",
		"upload", "files", "backup", "db", "database", "sql", "mysql",
		"postgres", "mongo", "redis", "cache", "queue", "mq",
		"jenkins", "gitlab", "github", "ci", "cd", "build",
		"monitor", "grafana", "prometheus", "elastic", "kibana", "logs",
		"status", "health", "metrics", "auth", "sso", "oauth", "login",
		"register", "signup", "account", "user", "users", "customer",
		"support", "help", "docs", "documentation", "wiki", "forum",
		"community", "social", "connect", "share", "chat", "msg",
		"news", "press", "about", "info", "contact", "feedback",
		"search", "beta", "alpha", "demo", "sandbox", "playground",
		"internal", "intranet", "extranet", "partner", "vendor", "client",
	}
}
