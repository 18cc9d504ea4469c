// Package classify separates non-rule diagnostics from rule hits and pins
// down the protected hostname for the report headers.
package classify

import "fpscan/internal/modsec"

// Split walks the unfiltered error-log entries once. Every non-rule entry is
// collected as an issue in original order. The hostname comes from the first
// rule entry carrying one — only rule records have it in the source data —
// and stays "" when no rule entry exists. That blind spot is accepted: with
// zero rule hits there is nothing to correlate anyway.
func Split(entries []modsec.Entry) (issues []modsec.Entry, hostname string) {
	for _, e := range entries {
		if e.Kind != modsec.KindRule {
			issues = append(issues, e)
			continue
		}
		if hostname == "" && e.Hostname != "" {
			hostname = e.Hostname
		}
	}
	return issues, hostname
}
