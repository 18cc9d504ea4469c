// Package fpstats groups rule hits by rule id and breaks each group down by
// client IP and by offending payload, with the ranking the false-positive
// report renders.
package fpstats

import (
	"errors"
	"sort"

	"fpscan/internal/datex"
	"fpscan/internal/modsec"
)

// ErrNoRuleErrors signals an empty rule-hit input. Without a single rule hit
// there is no hostname to report against, so the run is refused up front.
var ErrNoRuleErrors = errors.New("no rule-error records available to determine hostname")

// TopN caps every rendered ranking; the true totals are still reported.
const TopN = 10

// IPStat is the per-IP breakdown inside one rule group.
type IPStat struct {
	IP       string
	Hits     int
	Payloads []string // in hit order, duplicates kept
}

// PayloadStat is the per-payload breakdown inside one rule group.
type PayloadStat struct {
	Payload  string
	Hits     int
	IPs      []string // distinct senders, in first-seen order
	LastSeen string   // raw source timestamp of the latest hit

	seen map[string]struct{}
}

// RuleGroup aggregates every hit of one rule id.
type RuleGroup struct {
	ID   string
	Msg  string
	Hits int

	ipIndex  map[string]*IPStat
	ipOrder  []*IPStat
	payIndex map[string]*PayloadStat
	payOrder []*PayloadStat
}

// UniqueIPs is the true distinct-IP count, independent of the TopN cap.
func (g *RuleGroup) UniqueIPs() int { return len(g.ipOrder) }

// UniquePayloads is the true distinct-payload count.
func (g *RuleGroup) UniquePayloads() int { return len(g.payOrder) }

// TopIPs ranks IPs by descending hit count, ties broken by insertion order,
// capped at n. The ranking is computed on a copy; stored order is never
// resorted.
func (g *RuleGroup) TopIPs(n int) []*IPStat {
	ranked := make([]*IPStat, len(g.ipOrder))
	copy(ranked, g.ipOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Hits > ranked[j].Hits
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopPayloads ranks payloads by ascending hit count — rare payloads look the
// most suspicious, so they surface first — ties broken by insertion order,
// capped at n.
func (g *RuleGroup) TopPayloads(n int) []*PayloadStat {
	ranked := make([]*PayloadStat, len(g.payOrder))
	copy(ranked, g.payOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Hits < ranked[j].Hits
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Groups is the aggregation result, iterable in first-seen rule order.
type Groups struct {
	index map[string]*RuleGroup
	order []*RuleGroup
}

// All returns the groups in insertion order.
func (g *Groups) All() []*RuleGroup { return g.order }

// Get looks a group up by rule id.
func (g *Groups) Get(id string) (*RuleGroup, bool) {
	rg, ok := g.index[id]
	return rg, ok
}

// Len is the number of distinct rules seen.
func (g *Groups) Len() int { return len(g.order) }

// Aggregate runs the single aggregation pass. Every input record increments
// exactly one group's hit counter, one IP stat and one payload stat, so the
// counts always sum back to the input size. The input slice is never mutated.
func Aggregate(rules []modsec.Entry) (*Groups, error) {
	if len(rules) == 0 {
		return nil, ErrNoRuleErrors
	}

	groups := &Groups{index: make(map[string]*RuleGroup)}

	for _, e := range rules {
		rg, ok := groups.index[e.RuleID]
		if !ok {
			rg = &RuleGroup{
				ID:       e.RuleID,
				Msg:      e.Msg,
				ipIndex:  make(map[string]*IPStat),
				payIndex: make(map[string]*PayloadStat),
			}
			groups.index[e.RuleID] = rg
			groups.order = append(groups.order, rg)
		}
		rg.Hits++

		ip, ok := rg.ipIndex[e.ClientIP]
		if !ok {
			ip = &IPStat{IP: e.ClientIP}
			rg.ipIndex[e.ClientIP] = ip
			rg.ipOrder = append(rg.ipOrder, ip)
		}
		ip.Hits++
		ip.Payloads = append(ip.Payloads, e.Data)

		pay, ok := rg.payIndex[e.Data]
		if !ok {
			pay = &PayloadStat{Payload: e.Data, seen: make(map[string]struct{})}
			rg.payIndex[e.Data] = pay
			rg.payOrder = append(rg.payOrder, pay)
		}
		pay.Hits++
		if _, dup := pay.seen[e.ClientIP]; !dup {
			pay.seen[e.ClientIP] = struct{}{}
			pay.IPs = append(pay.IPs, e.ClientIP)
		}
		if pay.LastSeen == "" || datex.After(e.Date, pay.LastSeen) {
			pay.LastSeen = e.Date
		}
	}

	return groups, nil
}
