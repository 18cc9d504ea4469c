package datex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorLogFormat(t *testing.T) {
	got, ok := Parse("Sun Mar 01 10:32:55.123456 2020")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 1, 10, 32, 55, 123456000, time.UTC), got)

	got, ok = Parse("Sun Mar 01 10:32:55 2020")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 1, 10, 32, 55, 0, time.UTC), got)
}

func TestParseCLFFormat(t *testing.T) {
	got, ok := Parse("01/Mar/2020:10:32:55 +0100")
	require.True(t, ok)
	// wall clock is kept; the comparison domain is the machine's local time
	assert.Equal(t, time.Date(2020, 3, 1, 10, 32, 55, 0, time.UTC), got)
}

func TestParseCLFFractional(t *testing.T) {
	// ModSecurity >= 2.9 logs microsecond CLF timestamps
	got, ok := Parse("01/Mar/2020:10:32:55.123456 +0100")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 1, 10, 32, 55, 123456000, time.UTC), got)

	got, ok = Parse("01/Mar/2020:10:32:55.123456")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 1, 10, 32, 55, 123456000, time.UTC), got)
}

func TestParseBracketed(t *testing.T) {
	_, ok := Parse("[Sun Mar 01 10:32:55.123456 2020]")
	assert.True(t, ok)
}

func TestParseGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not a date", "99/Zzz/2020:10:00:00"} {
		_, ok := Parse(s)
		assert.False(t, ok, "%q should not parse", s)
	}
}

func TestBetweenInclusive(t *testing.T) {
	from := "Sun Mar 01 10:00:00.000000 2020"
	to := "Sun Mar 01 10:30:00.000000 2020"

	assert.True(t, Between("01/Mar/2020:10:00:00 +0000", from, to))
	assert.True(t, Between("01/Mar/2020:10:15:00 +0000", from, to))
	assert.True(t, Between("01/Mar/2020:10:30:00 +0000", from, to))
	assert.False(t, Between("01/Mar/2020:09:59:59 +0000", from, to))
	assert.False(t, Between("01/Mar/2020:10:30:01 +0000", from, to))
	assert.False(t, Between("garbage", from, to))
	assert.False(t, Between("01/Mar/2020:10:15:00 +0000", "garbage", to))
}

func TestAfter(t *testing.T) {
	assert.True(t, After("Sun Mar 01 11:00:00 2020", "Sun Mar 01 10:00:00 2020"))
	assert.False(t, After("Sun Mar 01 10:00:00 2020", "Sun Mar 01 11:00:00 2020"))
	assert.False(t, After("garbage", "Sun Mar 01 11:00:00 2020"))
	assert.True(t, After("Sun Mar 01 10:00:00 2020", "garbage"))
}
