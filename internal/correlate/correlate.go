// Package correlate merges rule-hit history with normal-traffic history per
// client IP, then regroups the profiles by triggered rule for the activity
// report.
package correlate

import (
	"context"

	"fpscan/internal/access"
	"fpscan/internal/datex"
	"fpscan/internal/lookup"
	"fpscan/internal/modsec"
)

// SuccessStatus is the canonical allowed-request status; anything else lands
// in a profile's rejected list.
const SuccessStatus = "200"

// BrokenRuleCap limits how many broken-rule entries a window renders.
const BrokenRuleCap = 10

// Profile is the per-IP aggregate. Built incrementally during Correlate and
// read-only afterwards.
type Profile struct {
	IP        string
	UserAgent string // first non-empty value seen, then frozen
	Lookup    lookup.Result

	BrokenRules []modsec.Entry // input order
	Activity    []access.Entry // input order
	Rejected    []access.Entry // input order, status != SuccessStatus
}

// Profiles holds the per-IP aggregates in first-seen order.
type Profiles struct {
	index map[string]*Profile
	order []*Profile
}

// All returns the profiles in insertion order.
func (p *Profiles) All() []*Profile { return p.order }

// Get looks a profile up by IP.
func (p *Profiles) Get(ip string) (*Profile, bool) {
	pr, ok := p.index[ip]
	return pr, ok
}

// Len is the number of IPs that triggered at least one rule.
func (p *Profiles) Len() int { return len(p.order) }

// Options steers enrichment for one correlation run.
type Options struct {
	Enrich  bool
	Cache   *lookup.Cache // required when Enrich is set
	Workers int
}

// Correlate builds an IP profile for every client that triggered a rule, then
// overlays its normal-traffic history. When enrichment is on, all reverse
// lookups for the fresh IPs run as one batch and are joined before the
// overlay phase, so every profile leaves here with a settled Lookup value.
// IPs seen only in the access log are intentionally not tracked.
func Correlate(ctx context.Context, rules []modsec.Entry, logs []access.Entry, opts Options) *Profiles {
	profiles := &Profiles{index: make(map[string]*Profile)}

	// Phase 1: profiles from rule hits.
	for _, e := range rules {
		pr, ok := profiles.index[e.ClientIP]
		if !ok {
			pr = &Profile{IP: e.ClientIP}
			profiles.index[e.ClientIP] = pr
			profiles.order = append(profiles.order, pr)
		}
		pr.BrokenRules = append(pr.BrokenRules, e)
	}

	if opts.Enrich && opts.Cache != nil {
		ips := make([]string, 0, len(profiles.order))
		for _, pr := range profiles.order {
			ips = append(ips, pr.IP)
		}
		opts.Cache.ResolveBatch(ctx, ips, opts.Workers, nil)
		for _, pr := range profiles.order {
			pr.Lookup = opts.Cache.Peek(pr.IP)
		}
	}
	// Enrichment off: every profile keeps the NotAttempted zero value and the
	// report prints the no-lookup sentinel.

	// Phase 2: normal-traffic overlay.
	for _, le := range logs {
		pr, ok := profiles.index[le.IP]
		if !ok {
			continue // benign-only IPs are out of scope
		}
		pr.Activity = append(pr.Activity, le)
		if le.Status != SuccessStatus {
			pr.Rejected = append(pr.Rejected, le)
		}
		if pr.UserAgent == "" && le.UserAgent != "" {
			pr.UserAgent = le.UserAgent
		}
	}

	return profiles
}

// RuleIPs is one rule's contributing profiles, deduplicated.
type RuleIPs struct {
	ID  string
	Msg string
	IPs []*Profile // insertion order; each profile appears once
}

// RuleIndex maps rule ids to their contributing profiles, iterable in
// first-seen rule order.
type RuleIndex struct {
	index map[string]*RuleIPs
	order []*RuleIPs
}

// All returns the per-rule sets in insertion order.
func (ri *RuleIndex) All() []*RuleIPs { return ri.order }

// Get looks a rule's set up by id.
func (ri *RuleIndex) Get(id string) (*RuleIPs, bool) {
	r, ok := ri.index[id]
	return r, ok
}

// Len is the number of distinct rules.
func (ri *RuleIndex) Len() int { return len(ri.order) }

// GroupByRule attaches every profile to each rule it broke. An IP that hit
// the same rule five times appears once in that rule's set; its profile still
// carries all five entries for the window breakdown.
func GroupByRule(profiles *Profiles, rules []modsec.Entry) *RuleIndex {
	idx := &RuleIndex{index: make(map[string]*RuleIPs)}
	seen := make(map[string]map[string]struct{})

	for _, e := range rules {
		pr, ok := profiles.index[e.ClientIP]
		if !ok {
			continue
		}
		r, ok := idx.index[e.RuleID]
		if !ok {
			r = &RuleIPs{ID: e.RuleID, Msg: e.Msg}
			idx.index[e.RuleID] = r
			idx.order = append(idx.order, r)
			seen[e.RuleID] = make(map[string]struct{})
		}
		if _, dup := seen[e.RuleID][e.ClientIP]; dup {
			continue
		}
		seen[e.RuleID][e.ClientIP] = struct{}{}
		r.IPs = append(r.IPs, pr)
	}

	return idx
}

// Window is the per-IP, per-rule breakdown: the broken-rule entries for one
// rule and the rejected requests that fall inside their active time span.
type Window struct {
	From     string // raw timestamp of the first matching rule hit
	To       string // raw timestamp of the last matching rule hit
	Broken   []modsec.Entry
	Rejected []access.Entry
}

// RuleWindow filters the profile's history down to one rule. The window
// bounds come from the first and last matching entries whose timestamps
// normalize; rejected requests are kept when their normalized timestamp lies
// in [From, To] inclusive. Records that fail to parse are excluded from the
// comparison rather than failing the run.
func (p *Profile) RuleWindow(ruleID string) Window {
	var w Window
	for _, e := range p.BrokenRules {
		if e.RuleID != ruleID {
			continue
		}
		w.Broken = append(w.Broken, e)
		if _, ok := datex.Parse(e.Date); !ok {
			continue
		}
		if w.From == "" {
			w.From = e.Date
		}
		w.To = e.Date
	}
	if w.From == "" {
		return w
	}
	for _, le := range p.Rejected {
		if datex.Between(le.Date, w.From, w.To) {
			w.Rejected = append(w.Rejected, le)
		}
	}
	return w
}
