// Package finding defines the records that flow between the scan stages:
// Target (resolver output), Finding (injection output) and ScanResult (one
// per host, produced by the aggregator). Every type here is a plain value
// with documented zero-value defaults and serializes directly to the report
// shape:
//
//	{"ip": "...", "status": 200 | "DNS-ONLY", "form_count": 1,
//	 "findings": [{"vuln_class": "SQLInjection", "parameter_name": "user",
//	               "payload_used": "'", "target_url": "..."}]}
package finding
