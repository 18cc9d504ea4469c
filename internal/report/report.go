// Package report renders the aggregates as deterministic plain text. Layout
// is presentation only; the content guarantees (ordering, caps, sentinels)
// are what the tests pin down.
package report

import (
	"fmt"
	"strings"

	"fpscan/internal/correlate"
	"fpscan/internal/fpstats"
	"fpscan/internal/knownbots"
	"fpscan/internal/lookup"
	"fpscan/internal/modsec"
)

// PeekFunc reads a settled lookup result for an IP. A nil PeekFunc means
// enrichment was disabled and every row gets the no-lookup sentinel.
type PeekFunc func(ip string) lookup.Result

func peekOrDefault(peek PeekFunc, ip string) lookup.Result {
	if peek == nil {
		return lookup.Result{State: lookup.NotAttempted}
	}
	return peek(ip)
}

// Overview renders one line per rule group in insertion order.
func Overview(groups *fpstats.Groups, hostname string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "False positive overview for %s\n", orDash(hostname))
	fmt.Fprintf(&b, "%d distinct rules triggered\n\n", groups.Len())
	for _, g := range groups.All() {
		fmt.Fprintf(&b, "%4d IPs %6d hits  rule %s: %s\n",
			g.UniqueIPs(), g.Hits, g.ID, orDash(g.Msg))
	}
	return b.String()
}

// FalsePositives renders the per-rule breakdown: top IPs by descending hits,
// top payloads by ascending hits (rare first), both capped at fpstats.TopN
// while the headline still shows the true totals.
func FalsePositives(groups *fpstats.Groups, peek PeekFunc) string {
	var b strings.Builder
	b.WriteString("False positive detail\n")
	for _, g := range groups.All() {
		fmt.Fprintf(&b, "\nrule %s: %s\n", g.ID, orDash(g.Msg))
		fmt.Fprintf(&b, "  %d hits from %d IPs, %d distinct payloads\n",
			g.Hits, g.UniqueIPs(), g.UniquePayloads())

		fmt.Fprintf(&b, "  top IPs (max %d):\n", fpstats.TopN)
		for _, ip := range g.TopIPs(fpstats.TopN) {
			fmt.Fprintf(&b, "    %6d  %-15s  %s\n",
				ip.Hits, ip.IP, peekOrDefault(peek, ip.IP).Display())
		}

		fmt.Fprintf(&b, "  rarest payloads (max %d):\n", fpstats.TopN)
		for _, pay := range g.TopPayloads(fpstats.TopN) {
			fmt.Fprintf(&b, "    %6d  last seen %s  from %d IP(s)  %s\n",
				pay.Hits, orDash(pay.LastSeen), len(pay.IPs), orDash(pay.Payload))
		}
	}
	return b.String()
}

// Activity renders, per rule and per contributing IP, the profile header and
// the time-windowed breakdown: the broken-rule entries (first
// correlate.BrokenRuleCap in chronological appearance) and every rejected
// request inside the window.
func Activity(idx *correlate.RuleIndex, bots *knownbots.Detector) string {
	var b strings.Builder
	b.WriteString("Activity inspection\n")
	for _, rule := range idx.All() {
		fmt.Fprintf(&b, "\nrule %s: %s\n", rule.ID, orDash(rule.Msg))
		for _, pr := range rule.IPs {
			writeProfile(&b, rule.ID, pr, bots)
		}
	}
	return b.String()
}

func writeProfile(b *strings.Builder, ruleID string, pr *correlate.Profile, bots *knownbots.Detector) {
	fmt.Fprintf(b, "  IP %s  host=%s", pr.IP, pr.Lookup.Display())
	if pr.Lookup.State == lookup.Resolved {
		if name, ok := bots.Match(pr.Lookup.Hostname); ok {
			fmt.Fprintf(b, " (known crawler: %s)", name)
		}
	}
	fmt.Fprintf(b, "  ua=%s\n", orDash(pr.UserAgent))

	w := pr.RuleWindow(ruleID)
	broken := w.Broken
	if len(broken) > correlate.BrokenRuleCap {
		broken = broken[:correlate.BrokenRuleCap]
	}
	fmt.Fprintf(b, "    broken %d time(s), window %s .. %s\n",
		len(w.Broken), orDash(w.From), orDash(w.To))
	for _, e := range broken {
		fmt.Fprintf(b, "      %s  data=%s\n", e.Date, orDash(e.Data))
	}
	if len(w.Rejected) > 0 {
		fmt.Fprintf(b, "    rejected requests in window: %d\n", len(w.Rejected))
		for _, le := range w.Rejected {
			fmt.Fprintf(b, "      %s  %s %s %s\n", le.Date, le.Status, le.Method, le.URI)
		}
	}
}

// Issues renders the non-rule diagnostics in original order.
func Issues(issues []modsec.Entry, hostname string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d non-rule issues for %s\n\n", len(issues), orDash(hostname))
	for _, e := range issues {
		fmt.Fprintf(&b, "%s  [%s]  %s\n", e.Date, e.Kind, orDash(e.Msg))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
