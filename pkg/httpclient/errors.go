package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
)

// Sentinel errors for HTTP client failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")

	// ErrTimeout indicates the request hit its deadline.
	ErrTimeout = errors.New("httpclient: request timed out")

	// ErrConnRefused indicates nothing was listening on the target port.
	ErrConnRefused = errors.New("httpclient: connection refused")

	// ErrNetwork is any other transport-level failure.
	ErrNetwork = errors.New("httpclient: network error")
)

// classifiedError keeps the original error reachable through Unwrap while
// also matching one of the sentinels above.
type classifiedError struct {
	kind error
	err  error
}

func (e *classifiedError) Error() string   { return e.kind.Error() + ": " + e.err.Error() }
func (e *classifiedError) Unwrap() []error { return []error{e.kind, e.err} }

// Classify maps a transport error onto one of the package sentinels.
// A nil error stays nil; context.Canceled is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	kind := kindOf(err)
	if errors.Is(err, kind) {
		return err
	}
	return &classifiedError{kind: kind, err: err}
}

func kindOf(err error) error {
	for _, kind := range []error{ErrDNS, ErrTLS, ErrTimeout, ErrConnRefused, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrDNS
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrConnRefused
	}
	var recErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &recErr) || errors.As(err, &certErr) || errors.As(err, &unknownAuth) {
		return ErrTLS
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "tls:") || strings.Contains(msg, "handshake"):
		return ErrTLS
	case strings.Contains(msg, "connection refused"):
		return ErrConnRefused
	case strings.Contains(msg, "no such host"):
		return ErrDNS
	}
	return ErrNetwork
}

// Label returns a short metric/log label for err: "dns", "tls", "timeout",
// "refused", "network", "canceled" or "" for nil.
func Label(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	switch kindOf(err) {
	case ErrDNS:
		return "dns"
	case ErrTLS:
		return "tls"
	case ErrTimeout:
		return "timeout"
	case ErrConnRefused:
		return "refused"
	}
	return "network"
}
