package dateutil

import (
	"sort"
	"time"
)

// DateSet is a set of calendar dates. The zero value is not usable, use NewDateSet.
type DateSet map[time.Time]struct{}

// NewDateSet builds a set from dates, collapsing duplicates
func NewDateSet(dates ...time.Time) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts the calendar date of d
func (s DateSet) Add(d time.Time) {
	s[Truncate(d)] = struct{}{}
}

// Has reports whether the calendar date of d is in the set
func (s DateSet) Has(d time.Time) bool {
	_, ok := s[Truncate(d)]
	return ok
}

// Len returns the number of dates
func (s DateSet) Len() int {
	return len(s)
}

// Sorted returns the dates in ascending order
func (s DateSet) Sorted() []time.Time {
	out := make([]time.Time, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Strings returns the sorted dates formatted as YYYY-MM-DD
func (s DateSet) Strings() []string {
	return FormatDates(s.Sorted())
}

// FormatDates formats dates as YYYY-MM-DD, preserving order
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(ISODate)
	}
	return out
}
