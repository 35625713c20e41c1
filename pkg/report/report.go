package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vortexscan/vortex/pkg/jsonutil"
	"github.com/vortexscan/vortex/pkg/pipeline"
)

// Paths lists the files written by WriteFiles.
type Paths struct {
	Data       string
	Subdomains string
	HTML       string
}

// All returns the paths in write order.
func (p Paths) All() []string {
	return []string{p.Data, p.Subdomains, p.HTML}
}

// FileBase returns the file name prefix for domain. Path separators and
// characters outside a conservative set are replaced with '_'.
func FileBase(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "scan"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, domain)
}

// WriteFiles writes the data, subdomain and HTML reports for rep into dir,
// creating it if needed.
func WriteFiles(dir string, rep *pipeline.Report) (Paths, error) {
	if rep == nil {
		return Paths{}, fmt.Errorf("report: nil report")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("report: create %s: %w", dir, err)
	}

	base := filepath.Join(dir, FileBase(rep.Domain))
	paths := Paths{
		Data:       base + "_data.json",
		Subdomains: base + "_subdomains.txt",
		HTML:       base + "_report.html",
	}

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.Data, func(w io.Writer) error { return WriteData(w, rep) }},
		{paths.Subdomains, func(w io.Writer) error { return WriteTable(w, rep) }},
		{paths.HTML, func(w io.Writer) error { return WriteHTML(w, rep) }},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, wr.write); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("report: close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// WriteData writes the host -> result map, indented, keys sorted.
func WriteData(w io.Writer, rep *pipeline.Report) error {
	return jsonutil.Write(w, rep.Results, "    ")
}

// WriteJSON writes the full report including scan metadata and summary.
func WriteJSON(w io.Writer, rep *pipeline.Report) error {
	return jsonutil.Write(w, rep, "  ")
}
