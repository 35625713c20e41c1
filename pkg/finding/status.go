package finding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DNSOnlyLabel is the serialized form of a status for a host that resolved
// but never answered HTTP on either scheme.
const DNSOnlyLabel = "DNS-ONLY"

// HTTPStatus is either a numeric HTTP status code or the DNS-only sentinel.
// The zero value is DNS-only.
type HTTPStatus struct {
	code int
}

// DNSOnly is the sentinel status.
var DNSOnly = HTTPStatus{}

// StatusCode wraps a numeric HTTP status. Codes <= 0 yield DNSOnly.
func StatusCode(code int) HTTPStatus {
	if code <= 0 {
		return DNSOnly
	}
	return HTTPStatus{code: code}
}

// Code returns the numeric status and whether one exists.
func (s HTTPStatus) Code() (int, bool) {
	return s.code, s.code > 0
}

// IsDNSOnly reports whether s is the sentinel.
func (s HTTPStatus) IsDNSOnly() bool { return s.code <= 0 }

// String returns the numeric code or "DNS-ONLY".
func (s HTTPStatus) String() string {
	if s.IsDNSOnly() {
		return DNSOnlyLabel
	}
	return strconv.Itoa(s.code)
}

// MarshalJSON encodes a number, or the string "DNS-ONLY".
func (s HTTPStatus) MarshalJSON() ([]byte, error) {
	if s.IsDNSOnly() {
		return []byte(strconv.Quote(DNSOnlyLabel)), nil
	}
	return []byte(strconv.Itoa(s.code)), nil
}

// UnmarshalJSON accepts a number or the string "DNS-ONLY".
func (s *HTTPStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		if label != DNSOnlyLabel {
			return fmt.Errorf("finding: unknown status %q", label)
		}
		*s = DNSOnly
		return nil
	}
	code, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("finding: invalid status %s: %w", data, err)
	}
	*s = StatusCode(code)
	return nil
}
