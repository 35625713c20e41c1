package jsonutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/testutil"
)

func TestMarshal_SortedKeys(t *testing.T) {
	m := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	for i := 0; i < 5; i++ {
		data, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{"alpha":2,"mid":3,"zeta":1}`, string(data))
	}
}

func TestMarshal_ScanResults(t *testing.T) {
	results := map[string]finding.ScanResult{
		"mail.example.com": finding.NewScanResult(finding.Target{Host: "mail.example.com", IP: "192.0.2.2", Status: finding.DNSOnly}),
		"www.example.com":  finding.NewScanResult(finding.Target{Host: "www.example.com", IP: "192.0.2.1", Status: finding.StatusCode(200)}),
	}
	data, err := Marshal(results)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"mail.example.com":{"ip":"192.0.2.2","status":"DNS-ONLY","form_count":0,"findings":[]}`)
	assert.Contains(t, s, `"www.example.com":{"ip":"192.0.2.1","status":200,"form_count":0,"findings":[]}`)
	assert.Less(t, strings.Index(s, "mail."), strings.Index(s, "www."))

	var back map[string]finding.ScanResult
	require.NoError(t, Unmarshal(data, &back))
	assert.True(t, back["mail.example.com"].Status.IsDNSOnly())
	assert.Equal(t, finding.StatusCode(200), back["www.example.com"].Status)
}

func TestMarshal_InvalidUTF8Evidence(t *testing.T) {
	f := finding.Finding{Class: finding.SQLInjection, Evidence: "mysql: \xff\xfe syntax"}
	data, err := Marshal(f)
	require.NoError(t, err)
	assert.True(t, Valid(data))
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"b": 1, "a": 2}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 2,\n  \"b\": 1\n}", string(data))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"x"}, ""))
	assert.Equal(t, "[\"x\"]\n", buf.String())

	assert.Error(t, Write(&testutil.FailingWriter{}, []string{"x"}, ""))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":[1,2]}`)))
	assert.False(t, Valid([]byte(`{"a":`)))
	assert.False(t, Valid(nil))
}
