package service

import "time"

// Overlaps reports whether the closed date ranges [aStart, aEnd] and
// [bStart, bEnd] intersect. Sharing a boundary day counts as an overlap, and
// single-day ranges (start == end) are handled like any other. Comparison is
// date-granular: hour-of-day on the inputs is ignored.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart = dateOnly(aStart)
	aEnd = dateOnly(aEnd)
	bStart = dateOnly(bStart)
	bEnd = dateOnly(bEnd)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
