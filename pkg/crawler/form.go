package crawler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/vortexscan/vortex/pkg/finding"
)

// CrawlTask is one frontier entry.
type CrawlTask struct {
	URL   string
	Depth int
}

// InputField is a named form control. Type defaults to "text" and Value to "".
type InputField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Form describes an HTML form found while crawling.
type Form struct {
	// SourceURL is the page the form was found on.
	SourceURL string `json:"source_url"`

	// Action is the absolute submission URL. Empty when the action could
	// not be resolved to an http(s) URL.
	Action string `json:"action"`

	// Method is lowercase, "get" when unspecified.
	Method string       `json:"method"`
	Inputs []InputField `json:"inputs"`
	Score  int          `json:"score"`
}

// textCapable are the input types that accept free text.
var textCapable = map[string]bool{
	"text":     true,
	"search":   true,
	"password": true,
	"url":      true,
	"email":    true,
}

// IsTextCapable reports whether an input of type typ accepts free text.
func IsTextCapable(typ string) bool {
	return textCapable[strings.ToLower(typ)]
}

// FirstTextInput returns the index of the first text-capable input.
func (f Form) FirstTextInput() (int, bool) {
	for i, in := range f.Inputs {
		if IsTextCapable(in.Type) {
			return i, true
		}
	}
	return -1, false
}

// scoreWeights rank forms by how interesting their inputs are.
var scoreWeights = map[string]int{
	"password": 2,
	"email":    2,
	"hidden":   2,
	"text":     1,
	"search":   1,
}

// ScoreInputs returns the sensitivity score of a set of inputs.
func ScoreInputs(inputs []InputField) int {
	score := 0
	for _, in := range inputs {
		score += scoreWeights[in.Type]
	}
	return score
}

// SignatureKey is the canonical identity tuple: action, method and the
// sorted input names.
func (f Form) SignatureKey() string {
	names := make([]string, len(f.Inputs))
	for i, in := range f.Inputs {
		names[i] = in.Name
	}
	sort.Strings(names)
	return f.Action + "\x00" + strings.ToLower(f.Method) + "\x00" + strings.Join(names, "\x1f")
}

// Signature is the 64-bit murmur3 hash of SignatureKey.
func (f Form) Signature() uint64 {
	return murmur3.Sum64([]byte(f.SignatureKey()))
}

// Summary converts f to the report representation.
func (f Form) Summary() finding.FormSummary {
	inputs := make([]finding.InputSummary, len(f.Inputs))
	for i, in := range f.Inputs {
		inputs[i] = finding.InputSummary{Name: in.Name, Type: in.Type}
	}
	return finding.FormSummary{
		Action:    f.Action,
		Method:    f.Method,
		Score:     f.Score,
		Inputs:    inputs,
		Signature: fmt.Sprintf("%016x", f.Signature()),
	}
}

// Dedup stable-sorts forms by descending score and keeps the first form of
// each signature key. Keys are compared in full, never by hash, so distinct
// forms are never merged. The input slice is not modified.
func Dedup(forms []Form) []Form {
	sorted := make([]Form, len(forms))
	copy(sorted, forms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]Form, 0, len(sorted))
	for _, f := range sorted {
		key := f.SignatureKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
