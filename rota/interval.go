package rota

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap: a booking
// ending at 10:00 and one starting at 10:00 coexist.
//
// Symmetric in its arguments and total: callers validate interval order
// (end after start) at their own boundary.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
