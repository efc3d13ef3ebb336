package schedule

import (
	"strings"
	"time"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// WeekdayMask flags which weekdays are delivery candidates, Monday first
type WeekdayMask [7]bool

// Common masks
var (
	MondayToFriday = WeekdayMask{true, true, true, true, true, false, false}
	EveryDay       = WeekdayMask{true, true, true, true, true, true, true}
)

// ParseWeekdayMask builds a mask from a seven character "0"/"1" string (e.g. "1111100"),
// a []bool or []any of seven booleans, or a WeekdayMask.
// Any other type fails with WrongType; the right type with a bad shape fails with InvalidWeekmask.
func ParseWeekdayMask(raw any) (WeekdayMask, error) {
	switch v := raw.(type) {
	case WeekdayMask:
		return v, nil
	case string:
		return parseMaskString(v)
	case []bool:
		if len(v) != 7 {
			return WeekdayMask{}, validation.New(validation.InvalidWeekmask,
				"Invalid business day weekmask: expected 7 flags, got %d", len(v))
		}
		var m WeekdayMask
		copy(m[:], v)
		return m, nil
	case []any:
		if len(v) != 7 {
			return WeekdayMask{}, validation.New(validation.InvalidWeekmask,
				"Invalid business day weekmask: expected 7 flags, got %d", len(v))
		}
		var m WeekdayMask
		for i, flag := range v {
			b, ok := flag.(bool)
			if !ok {
				return WeekdayMask{}, validation.New(validation.InvalidWeekmask,
					"Invalid business day weekmask: flag %d is %T, not a boolean", i, flag)
			}
			m[i] = b
		}
		return m, nil
	default:
		return WeekdayMask{}, validation.New(validation.WrongType,
			"Couldn't convert object into a business day weekmask: got %T", raw)
	}
}

func parseMaskString(raw string) (WeekdayMask, error) {
	var m WeekdayMask
	if len(raw) != 7 {
		return m, validation.New(validation.InvalidWeekmask,
			"Invalid business day weekmask string %q: expected 7 characters, got %d", raw, len(raw))
	}
	for i := 0; i < 7; i++ {
		switch raw[i] {
		case '1':
			m[i] = true
		case '0':
		default:
			return WeekdayMask{}, validation.New(validation.InvalidWeekmask,
				"Invalid business day weekmask string %q: character %d must be '0' or '1'", raw, i)
		}
	}
	return m, nil
}

// IsCandidate reports whether weekday index i (Monday=0 .. Sunday=6) is flagged
func (m WeekdayMask) IsCandidate(i int) bool {
	if i < 0 || i > 6 {
		return false
	}
	return m[i]
}

// Matches reports whether the weekday of date is flagged
func (m WeekdayMask) Matches(date time.Time) bool {
	return m[dateutil.WeekdayIndex(date)]
}

// Weekdays returns the flagged weekdays, Monday first
func (m WeekdayMask) Weekdays() []time.Weekday {
	var days []time.Weekday
	for i, on := range m {
		if on {
			days = append(days, time.Weekday((i+1)%7))
		}
	}
	return days
}

// IsEmpty reports whether no weekday is flagged
func (m WeekdayMask) IsEmpty() bool {
	return m == WeekdayMask{}
}

// String renders the mask in its "1111100" form
func (m WeekdayMask) String() string {
	var b strings.Builder
	for _, on := range m {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
