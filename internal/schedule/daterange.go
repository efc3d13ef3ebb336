package schedule

import (
	"strings"
	"time"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Boundary says which endpoints of a DateRange belong to the expected schedule
type Boundary int

const (
	BoundaryBoth Boundary = iota
	BoundaryLeft
	BoundaryRight
	BoundaryNeither
)

// ParseBoundary accepts "both", "left", "right" and "neither". An empty value means both.
func ParseBoundary(raw string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "both":
		return BoundaryBoth, nil
	case "left":
		return BoundaryLeft, nil
	case "right":
		return BoundaryRight, nil
	case "neither":
		return BoundaryNeither, nil
	}
	return 0, validation.New(validation.InvalidDateRange,
		"boundary accepts only 'both', 'left', 'right' or 'neither', got %q", raw)
}

func (b Boundary) String() string {
	switch b {
	case BoundaryLeft:
		return "left"
	case BoundaryRight:
		return "right"
	case BoundaryNeither:
		return "neither"
	}
	return "both"
}

// DateRange is a pair of calendar dates with Start <= End
type DateRange struct {
	Start    time.Time
	End      time.Time
	Boundary Boundary
}

// NewDateRange truncates both endpoints to calendar dates and checks start <= end
func NewDateRange(start, end time.Time, boundary Boundary) (DateRange, error) {
	start, end = dateutil.Truncate(start), dateutil.Truncate(end)
	if end.Before(start) {
		return DateRange{}, validation.New(validation.InvalidDateRange,
			"start date %s is after end date %s", start.Format(dateutil.ISODate), end.Format(dateutil.ISODate))
	}
	return DateRange{Start: start, End: end, Boundary: boundary}, nil
}

// Inclusive returns a range including both endpoints
func Inclusive(start, end time.Time) (DateRange, error) {
	return NewDateRange(start, end, BoundaryBoth)
}

// Contains reports whether the calendar date of d is inside the range, honouring Boundary
func (r DateRange) Contains(d time.Time) bool {
	d = dateutil.Truncate(d)
	if d.Before(r.Start) || d.After(r.End) {
		return false
	}
	if d.Equal(r.Start) && (r.Boundary == BoundaryRight || r.Boundary == BoundaryNeither) {
		return false
	}
	if d.Equal(r.End) && (r.Boundary == BoundaryLeft || r.Boundary == BoundaryNeither) {
		return false
	}
	return true
}

// Years returns every calendar year the range touches
func (r DateRange) Years() []int {
	return dateutil.YearsSpanned(r.Start, r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(dateutil.ISODate) + ".." + r.End.Format(dateutil.ISODate)
}
