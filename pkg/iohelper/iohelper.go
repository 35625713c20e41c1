// Package iohelper reads HTTP response bodies under fixed size limits.
// Every fetch in the scanner goes through here so that a hostile or
// misconfigured host cannot exhaust memory.
package iohelper

import (
	"io"
	"log/slog"
)

// Body size limits.
const (
	// ProbeMaxBodySize bounds liveness probes, where only the status matters (8KB).
	ProbeMaxBodySize int64 = 8 * 1024

	// PageMaxBodySize bounds crawled and injected pages (2MB). Error
	// fingerprints and reflections beyond this point are not inspected.
	PageMaxBodySize int64 = 2 * 1024 * 1024

	// drainLimit bounds how much of an unread body is discarded on close.
	drainLimit int64 = 64 * 1024
)

// ReadBody reads at most maxSize bytes from r.
// A nil reader yields an empty slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	body, _, err := ReadBodyTruncated(r, maxSize)
	return body, err
}

// ReadBodyTruncated is ReadBody that also reports whether the body was
// longer than maxSize.
func ReadBodyTruncated(r io.Reader, maxSize int64) ([]byte, bool, error) {
	if r == nil {
		return []byte{}, false, nil
	}
	if maxSize <= 0 {
		maxSize = PageMaxBodySize
	}
	// one extra byte tells a full read from a cut one
	body, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if int64(len(body)) > maxSize {
		return body[:maxSize], true, err
	}
	return body, false, err
}

// ReadPage reads a page body with PageMaxBodySize and logs truncation at
// debug level. Read errors are returned together with whatever was read.
func ReadPage(r io.Reader, logger *slog.Logger, url string) ([]byte, error) {
	body, truncated, err := ReadBodyTruncated(r, PageMaxBodySize)
	if truncated && logger != nil {
		logger.Debug("page body truncated",
			slog.String("url", url),
			slog.Int64("limit", PageMaxBodySize))
	}
	return body, err
}

// DrainAndClose discards up to 64KB of what is left in r and closes it when
// it is a ReadCloser, so the connection can go back to the keep-alive pool.
// It always returns nil for use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
