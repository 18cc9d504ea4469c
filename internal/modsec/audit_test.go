package modsec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAudit = `{"transaction":{"time":"01/Mar/2020:10:32:55 +0100","remote_address":"198.51.100.9","request":{"headers":{"Host":"shop.example.com"}}},"audit_data":{"messages":["Warning. Pattern match \"^[\\\\d.:]+$\" at REQUEST_HEADERS:Host. [file \"rules.conf\"] [id \"920350\"] [msg \"Host header is a numeric IP address\"] [data \"198.51.100.9\"]"]}}
{"transaction":{"time":"01/Mar/2020:10:33:00 +0100","remote_address":"198.51.100.9"},"audit_data":{"messages":["no rule id in this message"]}}
{broken json
`

func TestParseAuditJSONL(t *testing.T) {
	entries, stats, err := ParseAuditJSONL(strings.NewReader(sampleAudit))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Lines)
	assert.Equal(t, int64(1), stats.Parsed)
	assert.Equal(t, int64(2), stats.Skipped)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, KindRule, e.Kind)
	assert.Equal(t, "01/Mar/2020:10:32:55 +0100", e.Date)
	assert.Equal(t, "920350", e.RuleID)
	assert.Equal(t, "Host header is a numeric IP address", e.Msg)
	assert.Equal(t, "198.51.100.9", e.Data)
	assert.Equal(t, "198.51.100.9", e.ClientIP)
	assert.Equal(t, "shop.example.com", e.Hostname, "hostname falls back to the Host header")
}

func TestParseAuditJSONLMultipleMessages(t *testing.T) {
	line := `{"transaction":{"time":"01/Mar/2020:11:00:00 +0100","remote_address":"203.0.113.5"},"audit_data":{"messages":["m1 [id \"942100\"] [msg \"SQLi\"]","m2 [id \"949110\"] [msg \"Anomaly Score Exceeded\"]"]}}`
	entries, stats, err := ParseAuditJSONL(strings.NewReader(line))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Parsed)
	require.Len(t, entries, 2)
	assert.Equal(t, "942100", entries[0].RuleID)
	assert.Equal(t, "949110", entries[1].RuleID)
}
