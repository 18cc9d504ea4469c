package report

import (
	"github.com/bytedance/sonic"

	"fpscan/internal/fpstats"
)

// RuleSummary is the machine-readable counterpart of one overview line.
type RuleSummary struct {
	RuleID    string `json:"rule_id"`
	Msg       string `json:"msg"`
	Hits      int    `json:"hits"`
	UniqueIPs int    `json:"unique_ips"`
	Payloads  int    `json:"distinct_payloads"`
}

// Summary is the JSON export of one run.
type Summary struct {
	Hostname string        `json:"hostname"`
	Rules    []RuleSummary `json:"rules"`
}

// BuildSummary flattens the rule groups in insertion order.
func BuildSummary(groups *fpstats.Groups, hostname string) Summary {
	s := Summary{Hostname: hostname, Rules: make([]RuleSummary, 0, groups.Len())}
	for _, g := range groups.All() {
		s.Rules = append(s.Rules, RuleSummary{
			RuleID:    g.ID,
			Msg:       g.Msg,
			Hits:      g.Hits,
			UniqueIPs: g.UniqueIPs(),
			Payloads:  g.UniquePayloads(),
		})
	}
	return s
}

// MarshalSummary serializes the summary for the -json flag.
func MarshalSummary(s Summary) ([]byte, error) {
	return sonic.ConfigDefault.MarshalIndent(s, "", "  ")
}
