// Package report writes scan reports.
//
// # Files (report.go)
//
// WriteFiles writes three files per scan into a directory:
//
//	<domain>_data.json        host -> result map, machine-readable
//	<domain>_subdomains.txt   fixed-width host table sorted by status
//	<domain>_report.html      self-contained HTML summary
//
// # Streams (text.go, html.go)
//
// WriteJSON, WriteTable and WriteHTML render the same data to any io.Writer.
package report
