package modsec

// Kind discriminates the error-log record families we care about. Anything
// that is not a rule hit is a diagnostic issue (broken upstream, TLS trouble)
// and flows into the issues report instead of the aggregation engine.
type Kind string

const (
	KindRule  Kind = "rule"
	KindProxy Kind = "proxy"
	KindSSL   Kind = "ssl"
)

// Entry is one parsed error-log record. Rule hits fill every field; proxy and
// ssl diagnostics only carry Kind, Date and Msg (Hostname incidentally).
// Entries are immutable once parsed.
type Entry struct {
	Kind     Kind
	Date     string // raw source timestamp, normalized lazily via datex
	Msg      string
	Hostname string

	// rule hits only
	RuleID   string
	ClientIP string
	Data     string // offending payload
}

// Rules filters entries down to rule hits, preserving input order.
func Rules(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindRule {
			out = append(out, e)
		}
	}
	return out
}
