package finding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanResult_EmptyFindingsSerializeAsArray(t *testing.T) {
	t.Parallel()

	r := NewScanResult(Target{Host: "mail.example.com", IP: "203.0.113.7", Status: DNSOnly})
	data, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, `{"ip":"203.0.113.7","status":"DNS-ONLY","form_count":0,"findings":[]}`, string(data))
}

func TestScanResult_ReportShape(t *testing.T) {
	t.Parallel()

	r := ScanResult{
		IP:        "203.0.113.8",
		Status:    StatusCode(200),
		FormCount: 1,
		Findings: []Finding{{
			Class:     SQLInjection,
			TargetURL: "http://shop.example.com/login",
			Parameter: "user",
			Payload:   "' OR '1'='1",
		}},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, float64(200), m["status"])
	assert.Equal(t, float64(1), m["form_count"])

	findings := m["findings"].([]any)
	require.Len(t, findings, 1)
	f := findings[0].(map[string]any)
	for _, key := range []string{"vuln_class", "parameter_name", "payload_used", "target_url"} {
		assert.Contains(t, f, key)
	}
	assert.Equal(t, "SQLInjection", f["vuln_class"])
}

func TestScanResult_CountByClass(t *testing.T) {
	t.Parallel()

	r := ScanResult{Findings: []Finding{
		{Class: SQLInjection}, {Class: ReflectedXSS}, {Class: SQLInjection},
	}}
	assert.True(t, r.HasFindings())
	assert.Equal(t, 2, r.CountByClass(SQLInjection))
	assert.Equal(t, 1, r.CountByClass(ReflectedXSS))
	assert.False(t, NewScanResult(Target{}).HasFindings())
}

func TestTarget_Web(t *testing.T) {
	t.Parallel()
	assert.True(t, Target{Status: StatusCode(301), BaseURL: "http://a.example.com"}.Web())
	assert.False(t, Target{Status: DNSOnly}.Web())
}

func TestClassSeverity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, High, SQLInjection.Severity())
	assert.Equal(t, Medium, ReflectedXSS.Severity())
	assert.Equal(t, Info, Class("other").Severity())
	assert.Equal(t, []Class{SQLInjection, ReflectedXSS}, Classes())
}

func TestSeverity(t *testing.T) {
	t.Parallel()
	for _, s := range []Severity{High, Medium, Low, Info} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Severity("HIGH").IsValid())
	assert.Greater(t, High.Score(), Medium.Score())
	assert.Equal(t, 0, Severity("").Score())
}
