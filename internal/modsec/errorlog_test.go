package modsec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleErrorLog = `[Sun Mar 01 10:32:55.123456 2020] [security2:error] [pid 1234:tid 140] [client 203.0.113.7:54321] ModSecurity: Warning. detected SQLi using libinjection. [file "/etc/crs/REQUEST-942-APPLICATION-ATTACK-SQLI.conf"] [line "45"] [id "942100"] [msg "SQL Injection Attack Detected via libinjection"] [data "Matched Data: a' OR '1'='1"] [severity "CRITICAL"] [hostname "example.com"] [uri "/search"]
[Sun Mar 01 10:40:00.000000 2020] [proxy:error] [pid 1234] [client 203.0.113.7:54321] AH00898: Error during SSL Handshake with remote server returned by /app
[Sun Mar 01 10:41:00.000000 2020] [mpm_event:notice] [pid 1] AH00489: Apache/2.4.41 configured
[Sun Mar 01 10:42:00.000000 2020] [ssl:warn] [pid 1234] AH01909: server certificate does NOT include an ID which matches the server name
not a log line at all
`

func TestParseErrorLog(t *testing.T) {
	entries, stats, err := ParseErrorLog(strings.NewReader(sampleErrorLog))
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.Lines)
	assert.Equal(t, int64(3), stats.Parsed)
	assert.Equal(t, int64(2), stats.Skipped)
	require.Len(t, entries, 3)

	rule := entries[0]
	assert.Equal(t, KindRule, rule.Kind)
	assert.Equal(t, "Sun Mar 01 10:32:55.123456 2020", rule.Date)
	assert.Equal(t, "942100", rule.RuleID)
	assert.Equal(t, "SQL Injection Attack Detected via libinjection", rule.Msg)
	assert.Equal(t, "Matched Data: a' OR '1'='1", rule.Data)
	assert.Equal(t, "example.com", rule.Hostname)
	assert.Equal(t, "203.0.113.7", rule.ClientIP)

	proxy := entries[1]
	assert.Equal(t, KindProxy, proxy.Kind)
	assert.Equal(t, "AH00898: Error during SSL Handshake with remote server returned by /app", proxy.Msg)

	ssl := entries[2]
	assert.Equal(t, KindSSL, ssl.Kind)
	assert.Contains(t, ssl.Msg, "AH01909")
}

func TestParseErrorLogClientAddressForms(t *testing.T) {
	cases := []struct {
		client string
		want   string
	}{
		{"203.0.113.7:54321", "203.0.113.7"},
		{"10.0.0.1", "10.0.0.1"},
		{"2001:db8::1:54321", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
	}
	for _, tc := range cases {
		line := `[Sun Mar 01 10:32:55.123456 2020] [security2:error] [pid 1] [client ` + tc.client + `] ModSecurity: Warning. [id "942100"] [msg "SQL Injection Attack"] [hostname "example.com"]`
		entries, _, err := ParseErrorLog(strings.NewReader(line))
		require.NoError(t, err)
		require.Len(t, entries, 1, "client %q", tc.client)
		assert.Equal(t, tc.want, entries[0].ClientIP, "client %q", tc.client)
	}
}

func TestParseErrorLogEscapedQuotes(t *testing.T) {
	line := `[Sun Mar 01 10:32:55.123456 2020] [security2:error] [pid 1] [client 10.0.0.1] ModSecurity: Warning. [id "941100"] [msg "XSS Attack"] [data "Matched Data: <img src=\"x\">"] [hostname "example.com"]`
	entries, _, err := ParseErrorLog(strings.NewReader(line))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `Matched Data: <img src="x">`, entries[0].Data)
}

func TestParseErrorLogSkipsScoringLines(t *testing.T) {
	// anomaly summary lines carry no [id] and must not become rule entries
	line := `[Sun Mar 01 10:32:56.000000 2020] [security2:error] [pid 1] [client 10.0.0.1] ModSecurity: Access denied with code 403 (phase 2). [hostname "example.com"]`
	entries, stats, err := ParseErrorLog(strings.NewReader(line))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(1), stats.Skipped)
}

func TestRulesFilter(t *testing.T) {
	entries := []Entry{
		{Kind: KindRule, RuleID: "1"},
		{Kind: KindProxy},
		{Kind: KindRule, RuleID: "2"},
	}
	rules := Rules(entries)
	require.Len(t, rules, 2)
	assert.Equal(t, "1", rules[0].RuleID)
	assert.Equal(t, "2", rules[1].RuleID)
}
