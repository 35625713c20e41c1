package duration

import (
	"testing"
	"time"
)

// Every per-operation timeout must stay in single-digit seconds so a
// dead host never stalls a stage for long.
func TestOperationTimeoutsAreBounded(t *testing.T) {
	ops := map[string]time.Duration{
		"DNSTimeout":  DNSTimeout,
		"HTTPProbe":   HTTPProbe,
		"HTTPConnect": HTTPConnect,
		"HTTPCrawl":   HTTPCrawl,
		"HTTPInject":  HTTPInject,
	}
	for name, d := range ops {
		if d <= 0 || d >= 10*time.Second {
			t.Errorf("%s = %v, want 0 < d < 10s", name, d)
		}
	}
}

func TestBackoffOrdering(t *testing.T) {
	if DNSBackoff >= DNSTimeout {
		t.Errorf("DNSBackoff (%v) should be shorter than DNSTimeout (%v)", DNSBackoff, DNSTimeout)
	}
	if DNSMaxBackoff < DNSBackoff {
		t.Errorf("DNSMaxBackoff (%v) < DNSBackoff (%v)", DNSMaxBackoff, DNSBackoff)
	}
	if HTTPConnect >= HTTPProbe {
		t.Errorf("HTTPConnect (%v) should be shorter than HTTPProbe (%v)", HTTPConnect, HTTPProbe)
	}
}
