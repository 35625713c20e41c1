// Package jsonutil wraps github.com/go-json-experiment/json with the options
// reports need: deterministic map key order and tolerance for invalid UTF-8
// copied out of scanned response bodies.
//
// Usage:
//
//	data, err := jsonutil.MarshalIndent(report, "  ")
//	err = jsonutil.Unmarshal(data, &results)
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

func options(indent string) json.Options {
	opts := []json.Options{
		json.Deterministic(true),
		jsontext.AllowInvalidUTF8(true),
	}
	if indent != "" {
		opts = append(opts, jsontext.WithIndent(indent))
	}
	return json.JoinOptions(opts...)
}

// Marshal returns the compact JSON encoding of v with sorted map keys.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v, options(""))
}

// MarshalIndent returns the indented JSON encoding of v with sorted map keys.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.Marshal(v, options(indent))
}

// Write encodes v to w followed by a newline.
func Write(w io.Writer, v any, indent string) error {
	if err := json.MarshalWrite(w, v, options(indent)); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}
