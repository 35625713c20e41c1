// Package xss detects reflected cross-site scripting signals: a submitted
// payload that comes back in the response body without being escaped.
package xss

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/vortexscan/vortex/pkg/finding"
)

// builtinPayloads are tried in order before any external list.
var builtinPayloads = []string{
	`<script>alert('vortex')</script>`,
	`"><svg/onload=alert('vortex')>`,
	`<img src=x onerror=alert('vortex')>`,
}

// Payloads returns a copy of the built-in payload list.
func Payloads() []string {
	return append([]string(nil), builtinPayloads...)
}

// Reflection describes how a payload came back.
type Reflection int

const (
	// NotReflected means the payload is absent from the body.
	NotReflected Reflection = iota
	// Escaped means only an HTML-escaped form of the payload is present.
	Escaped
	// Raw means the exact payload is present unescaped.
	Raw
)

func (r Reflection) String() string {
	switch r {
	case Escaped:
		return "escaped"
	case Raw:
		return "raw"
	}
	return "none"
}

// Check classifies how payload appears in body.
func Check(body []byte, payload string) Reflection {
	if payload == "" {
		return NotReflected
	}
	if bytes.Contains(body, []byte(payload)) {
		return Raw
	}
	if escaped := html.EscapeString(payload); escaped != payload && bytes.Contains(body, []byte(escaped)) {
		return Escaped
	}
	// entity variants the server may have used (&#x3C; etc.)
	if strings.Contains(html.UnescapeString(string(body)), payload) {
		return Escaped
	}
	return NotReflected
}

// Detector is the reflected XSS detector used by the injection stage.
type Detector struct{}

// Class returns finding.ReflectedXSS.
func (Detector) Class() finding.Class { return finding.ReflectedXSS }

// Payloads returns the built-in payloads.
func (Detector) Payloads() []string { return Payloads() }

// Detect reports an unescaped reflection of payload in body.
func (Detector) Detect(body []byte, payload string) (string, bool) {
	if Check(body, payload) != Raw {
		return "", false
	}
	return "payload reflected unescaped", true
}
