package modsec

import (
	"bufio"
	"io"
	"strings"

	"github.com/bytedance/sonic"
)

// Serial JSON audit format, one transaction per line. Only the fields the
// correlation engine needs are decoded.
type auditLine struct {
	Transaction struct {
		Time          string `json:"time"`
		RemoteAddress string `json:"remote_address"`
		Request       struct {
			Headers map[string]string `json:"headers"`
		} `json:"request"`
	} `json:"transaction"`
	AuditData struct {
		Messages []string `json:"messages"`
	} `json:"audit_data"`
}

// ParseAuditJSONL reads a ModSecurity serial-audit JSONL stream and yields one
// rule entry per audit message carrying a rule id. Undecodable lines are
// skipped and counted.
func ParseAuditJSONL(r io.Reader) ([]Entry, Stats, error) {
	var (
		out   []Entry
		stats Stats
	)

	sc := bufio.NewScanner(bufio.NewReaderSize(r, 1<<20))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for sc.Scan() {
		stats.Lines++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var al auditLine
		if err := sonic.UnmarshalString(raw, &al); err != nil {
			stats.Skipped++
			continue
		}

		host := al.Transaction.Request.Headers["Host"]
		added := false
		for _, msg := range al.AuditData.Messages {
			attrs := parseAttrs(msg)
			if attrs["id"] == "" {
				continue
			}
			hostname := attrs["hostname"]
			if hostname == "" {
				hostname = host
			}
			out = append(out, Entry{
				Kind:     KindRule,
				Date:     al.Transaction.Time,
				RuleID:   attrs["id"],
				Msg:      attrs["msg"],
				Data:     attrs["data"],
				Hostname: hostname,
				ClientIP: al.Transaction.RemoteAddress,
			})
			added = true
		}
		if added {
			stats.Parsed++
		} else {
			stats.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return out, stats, err
	}
	return out, stats, nil
}
