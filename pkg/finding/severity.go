package finding

// Severity grades a finding. Values are lowercase strings as they appear in
// reports and metric labels.
type Severity string

const (
	High   Severity = "high"   // SQL injection
	Medium Severity = "medium" // reflected XSS
	Low    Severity = "low"
	Info   Severity = "info"
)

var severityRank = map[Severity]int{
	Info:   1,
	Low:    2,
	Medium: 3,
	High:   4,
}

// IsValid reports whether s is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Score orders severities for sorting: High=4 down to Info=1, unknown 0.
func (s Severity) Score() int { return severityRank[s] }

func (s Severity) String() string { return string(s) }
