package modsec

import (
	"bufio"
	"io"
	"net"
	"regexp"
	"strings"
)

// Stats counts what the parser saw; bad lines are skipped, never fatal.
type Stats struct {
	Lines   int64
	Parsed  int64
	Skipped int64
}

var (
	// [Sun Mar 01 10:32:55.123456 2020] [security2:error] [pid 123] ...
	reHeader = regexp.MustCompile(`^\[([^\]]+)\]\s+\[([a-z0-9_]+):[a-z]+\]`)

	// [client 1.2.3.4:4321] — port je opcioni
	reClient = regexp.MustCompile(`\[client ([^\]\s]+)\]`)

	// ModSecurity bracket attributes: [id "942100"] [msg "..."] [data "..."]
	reAttr = regexp.MustCompile(`\[([a-z_]+) "((?:[^"\\]|\\.)*)"\]`)
)

// ParseErrorLog reads an Apache-style error log and extracts ModSecurity rule
// hits plus proxy/ssl diagnostics. Lines from unrelated modules are skipped.
func ParseErrorLog(r io.Reader) ([]Entry, Stats, error) {
	var (
		out   []Entry
		stats Stats
	)

	sc := bufio.NewScanner(bufio.NewReaderSize(r, 1<<20))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		stats.Lines++
		line := sc.Text()

		m := reHeader.FindStringSubmatch(line)
		if m == nil {
			stats.Skipped++
			continue
		}
		date, module := m[1], m[2]

		e, ok := classifyLine(line, date, module)
		if !ok {
			stats.Skipped++
			continue
		}
		out = append(out, e)
		stats.Parsed++
	}
	if err := sc.Err(); err != nil {
		return out, stats, err
	}
	return out, stats, nil
}

func classifyLine(line, date, module string) (Entry, bool) {
	if strings.Contains(line, "ModSecurity:") {
		attrs := parseAttrs(line)
		id := attrs["id"]
		if id == "" {
			// anomaly-score summary lines etc. carry no rule id
			return Entry{}, false
		}
		e := Entry{
			Kind:     KindRule,
			Date:     date,
			RuleID:   id,
			Msg:      attrs["msg"],
			Data:     attrs["data"],
			Hostname: attrs["hostname"],
		}
		if c := reClient.FindStringSubmatch(line); c != nil {
			e.ClientIP = stripPort(c[1])
		}
		return e, true
	}

	switch {
	case strings.HasPrefix(module, "proxy"):
		return Entry{Kind: KindProxy, Date: date, Msg: trailingMessage(line)}, true
	case strings.HasPrefix(module, "ssl"):
		return Entry{Kind: KindSSL, Date: date, Msg: trailingMessage(line)}, true
	}
	return Entry{}, false
}

// parseAttrs collects the ModSecurity [key "value"] attributes of a line.
// Repeated keys keep the first value ("msg" repeats on chained rules).
func parseAttrs(line string) map[string]string {
	attrs := make(map[string]string, 8)
	for _, m := range reAttr.FindAllStringSubmatch(line, -1) {
		key, val := m[1], unescape(m[2])
		if _, ok := attrs[key]; !ok {
			attrs[key] = val
		}
	}
	return attrs
}

// stripPort drops a trailing ":port" from a client token only when the
// remainder is still a valid address. A port-less IPv6 client must keep its
// final hextet ("2001:db8::1" is the whole address, not host "2001:db8:").
func stripPort(token string) string {
	if net.ParseIP(token) != nil {
		return token
	}
	if i := strings.LastIndexByte(token, ':'); i > 0 {
		if host := token[:i]; net.ParseIP(host) != nil {
			return host
		}
	}
	return token
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// trailingMessage strips the leading bracketed header groups and returns the
// human-readable remainder of a diagnostic line.
func trailingMessage(line string) string {
	rest := line
	for strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "] ")
		if end < 0 {
			break
		}
		rest = rest[end+2:]
	}
	return strings.TrimSpace(rest)
}
