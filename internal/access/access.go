package access

import (
	"bufio"
	"io"
	"regexp"
)

// Entry is one access-log record in combined log format. Immutable once
// parsed; Date stays the raw source string and is normalized lazily.
type Entry struct {
	IP        string
	Date      string
	Status    string
	Method    string
	URI       string
	UserAgent string
}

// Stats counts parser work; malformed lines are skipped, never fatal.
type Stats struct {
	Lines   int64
	Parsed  int64
	Skipped int64
}

// 1.2.3.4 - - [01/Mar/2020:10:32:55 +0100] "GET /x HTTP/1.1" 403 123 "ref" "ua"
var reCombined = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[([^\]]+)\] "([A-Z]+) (\S+)[^"]*" (\d{3}) \S+(?: "[^"]*" "([^"]*)")?`)

// Parse reads a combined-format access log.
func Parse(r io.Reader) ([]Entry, Stats, error) {
	var (
		out   []Entry
		stats Stats
	)

	sc := bufio.NewScanner(bufio.NewReaderSize(r, 1<<20))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		stats.Lines++
		m := reCombined.FindStringSubmatch(sc.Text())
		if m == nil {
			stats.Skipped++
			continue
		}
		out = append(out, Entry{
			IP:        m[1],
			Date:      m[2],
			Method:    m[3],
			URI:       m[4],
			Status:    m[5],
			UserAgent: m[6],
		})
		stats.Parsed++
	}
	if err := sc.Err(); err != nil {
		return out, stats, err
	}
	return out, stats, nil
}
