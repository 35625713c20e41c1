package finding

// Class identifies the vulnerability class a Finding belongs to.
type Class string

const (
	SQLInjection Class = "SQLInjection"
	ReflectedXSS Class = "ReflectedXSS"
)

// Classes lists every class the injection stage tests, in test order.
func Classes() []Class {
	return []Class{SQLInjection, ReflectedXSS}
}

// Severity returns the fixed severity assigned to the class.
func (c Class) Severity() Severity {
	switch c {
	case SQLInjection:
		return High
	case ReflectedXSS:
		return Medium
	}
	return Info
}

// Label is the human readable name used in console and text reports.
func (c Class) Label() string {
	switch c {
	case SQLInjection:
		return "sql injection"
	case ReflectedXSS:
		return "reflected xss"
	}
	return string(c)
}

func (c Class) String() string { return string(c) }
