package finding

// Target is a resolved host. Created once by the resolver and never
// modified afterwards.
type Target struct {
	Host   string     `json:"host"`
	IP     string     `json:"ip"`
	Status HTTPStatus `json:"status"`

	// BaseURL is the scheme and host that answered HTTP, e.g.
	// "https://shop.example.com". Empty for DNS-only hosts.
	BaseURL string `json:"base_url,omitempty"`
}

// Web reports whether the host answered HTTP and can be crawled.
func (t Target) Web() bool {
	return !t.Status.IsDNSOnly() && t.BaseURL != ""
}

// Finding is one confirmed signal for one form and one class.
type Finding struct {
	Class     Class    `json:"vuln_class"`
	TargetURL string   `json:"target_url"`
	Parameter string   `json:"parameter_name"`
	Payload   string   `json:"payload_used"`
	Method    string   `json:"method,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
	Evidence  string   `json:"evidence,omitempty"`
}

// FormSummary describes one discovered form for the report.
type FormSummary struct {
	Action string         `json:"action"`
	Method string         `json:"method"`
	Score  int            `json:"score"`
	Inputs []InputSummary `json:"inputs"`
	// Signature is the hex form hash used to correlate forms across scans.
	Signature string `json:"signature,omitempty"`
}

// InputSummary is a named form field and its type.
type InputSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ScanResult is the final per-host record. Findings is never nil so it
// serializes as [] for hosts without findings.
type ScanResult struct {
	IP        string        `json:"ip"`
	Status    HTTPStatus    `json:"status"`
	FormCount int           `json:"form_count"`
	Findings  []Finding     `json:"findings"`
	Forms     []FormSummary `json:"forms,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// NewScanResult returns an empty result for t.
func NewScanResult(t Target) ScanResult {
	return ScanResult{
		IP:       t.IP,
		Status:   t.Status,
		Findings: []Finding{},
	}
}

// HasFindings reports whether any finding was recorded.
func (r ScanResult) HasFindings() bool { return len(r.Findings) > 0 }

// CountByClass returns the number of findings of class c.
func (r ScanResult) CountByClass(c Class) int {
	n := 0
	for _, f := range r.Findings {
		if f.Class == c {
			n++
		}
	}
	return n
}
