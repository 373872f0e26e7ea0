package types

import "time"

// DateLayout is the wire and storage format for calendar dates. Dates are
// days, not timestamps; comparisons and ranges are done on this layout,
// which sorts lexicographically in date order.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate formats t as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns today's calendar date in UTC.
func Today() string {
	return FormatDate(time.Now().UTC())
}
