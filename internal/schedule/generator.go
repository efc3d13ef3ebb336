// Package schedule computes the dates on which a recurring delivery is expected.
//
// Weekdays are indexed Monday=0 .. Sunday=6 everywhere in this package. All dates are
// calendar dates at midnight UTC (see dateutil.Truncate).
package schedule

import (
	"time"

	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

type options struct {
	exclude dateutil.DateSet
}

// Option tunes Generate
type Option func(*options)

// WithExclusions makes Generate skip the given dates when picking candidates.
// For Monthly this moves the first/last pick past an excluded date instead of dropping the month.
func WithExclusions(dates dateutil.DateSet) Option {
	return func(o *options) {
		o.exclude = dates
	}
}

// Generate returns the ascending, duplicate-free expected dates of freq inside rng.
// A month (Monthly) or a range with no flagged weekday contributes nothing; that is not an error.
func Generate(rng DateRange, mask WeekdayMask, freq Frequency, opts ...Option) ([]time.Time, error) {
	if err := freq.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch freq.Kind() {
	case KindWeekly:
		return weekly(rng, mask, freq.Interval(), o), nil
	case KindMonthly:
		return monthly(rng, mask, freq.Interval(), freq.Position(), o), nil
	default:
		return daily(rng, mask, o), nil
	}
}

func (o options) excluded(d time.Time) bool {
	return o.exclude != nil && o.exclude.Has(d)
}

func daily(rng DateRange, mask WeekdayMask, o options) []time.Time {
	var dates []time.Time
	for d := rng.Start; !d.After(rng.End); d = d.AddDate(0, 0, 1) {
		if mask.Matches(d) && rng.Contains(d) && !o.excluded(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// weekly keeps flagged weekdays in every interval-th week, counting Monday-based weeks from
// the week of the first flagged date inside the range.
func weekly(rng DateRange, mask WeekdayMask, interval int, o options) []time.Time {
	var (
		dates  []time.Time
		anchor time.Time
		found  bool
	)
	for d := rng.Start; !d.After(rng.End); d = d.AddDate(0, 0, 1) {
		if !mask.Matches(d) || !rng.Contains(d) {
			continue
		}
		if !found {
			anchor = dateutil.StartOfWeek(d)
			found = true
		}
		weeks := dateutil.DaysBetween(anchor, dateutil.StartOfWeek(d)) / 7
		if weeks%interval == 0 && !o.excluded(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// monthly scans every interval-th month from the month of rng.Start, picks the first or last
// flagged date of the whole month, and keeps it when it falls inside the range.
func monthly(rng DateRange, mask WeekdayMask, interval int, position Position, o options) []time.Time {
	var dates []time.Time
	for month := dateutil.StartOfMonth(rng.Start); !month.After(rng.End); month = month.AddDate(0, interval, 0) {
		pick, ok := pickInMonth(month, mask, position, o)
		if ok && rng.Contains(pick) {
			dates = append(dates, pick)
		}
	}
	return dates
}

func pickInMonth(month time.Time, mask WeekdayMask, position Position, o options) (time.Time, bool) {
	days := dateutil.DaysIn(month.Year(), month.Month())
	if position == PositionLast {
		for day := days; day >= 1; day-- {
			d := dateutil.Date(month.Year(), month.Month(), day)
			if mask.Matches(d) && !o.excluded(d) {
				return d, true
			}
		}
		return time.Time{}, false
	}
	for day := 1; day <= days; day++ {
		d := dateutil.Date(month.Year(), month.Month(), day)
		if mask.Matches(d) && !o.excluded(d) {
			return d, true
		}
	}
	return time.Time{}, false
}
