package datex

import (
	"strings"
	"time"
)

// Loose parser for the timestamp formats the pipeline actually sees.
// Rule errors carry the Apache error-log form ("Sun Mar 01 10:32:55.123456 2020"),
// access logs the CLF form ("01/Mar/2020:10:32:55 +0100"), audit JSONL either of
// those or RFC3339. Everything is reduced to one comparable time.Time.
var layouts = []string{
	"Mon Jan 02 15:04:05.000000 2006",
	"Mon Jan 02 15:04:05 2006",
	"02/Jan/2006:15:04:05.000000 -0700",
	"02/Jan/2006:15:04:05 -0700",
	"02/Jan/2006:15:04:05.000000",
	"02/Jan/2006:15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse returns the normalized timestamp and whether parsing succeeded.
// Callers treat a false return as "exclude this record from comparisons",
// never as a fatal error.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "[]"))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return coerceUTC(t), true
		}
	}
	// CLF sa nestandardnom zonom: isečemo sve posle prvog blanka
	if i := strings.IndexByte(s, ' '); i > 0 && strings.Contains(s[:i], "/") {
		for _, layout := range []string{"02/Jan/2006:15:04:05.000000", "02/Jan/2006:15:04:05"} {
			if t, err := time.Parse(layout, s[:i]); err == nil {
				return coerceUTC(t), true
			}
		}
	}
	return time.Time{}, false
}

// Between reports whether ts lies in [from, to] inclusive, all three given as
// raw source strings. Any unparseable operand excludes the record.
func Between(ts, from, to string) bool {
	t, ok := Parse(ts)
	if !ok {
		return false
	}
	lo, ok := Parse(from)
	if !ok {
		return false
	}
	hi, ok := Parse(to)
	if !ok {
		return false
	}
	return !t.Before(lo) && !t.After(hi)
}

// After reports whether a is strictly later than b. An unparseable a loses
// (the caller keeps whatever it already has); an unparseable b loses too, so
// a usable date always replaces an unusable one.
func After(a, b string) bool {
	ta, ok := Parse(a)
	if !ok {
		return false
	}
	tb, ok := Parse(b)
	if !ok {
		return true
	}
	return ta.After(tb)
}

// coerceUTC keeps the civil value but pins the location, so timestamps from
// zoned and zoneless layouts compare on the wall clock the operator reads.
func coerceUTC(t time.Time) time.Time {
	return time.Date(
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.UTC,
	)
}
