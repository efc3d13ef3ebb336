package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vestalisvirginis/filehole/internal/validation"
)

// Kind is the recurrence family of a Frequency
type Kind int

const (
	KindDaily Kind = iota + 1
	KindWeekly
	KindMonthly
)

// Token returns the short frequency token ("D", "W" or "M")
func (k Kind) Token() string {
	switch k {
	case KindDaily:
		return "D"
	case KindWeekly:
		return "W"
	case KindMonthly:
		return "M"
	}
	return ""
}

// Position selects the first or last qualifying date of a month
type Position int

const (
	PositionFirst Position = 1
	PositionLast  Position = -1
)

// ParsePosition accepts "first"/"last" and "1"/"-1". An empty value means first.
func ParsePosition(raw string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "first", "1", "+1":
		return PositionFirst, nil
	case "last", "-1":
		return PositionLast, nil
	}
	return 0, validation.New(validation.InvalidFrequency,
		"position accepts only 'first' (1) or 'last' (-1), got %q", raw)
}

func (p Position) String() string {
	if p == PositionLast {
		return "last"
	}
	return "first"
}

// Frequency is one of Daily, Weekly(interval) or Monthly(interval, position).
// Build it with Daily, Weekly, Monthly or ParseFrequency; the zero value is invalid.
type Frequency struct {
	kind     Kind
	interval int
	position Position
}

// Daily recurs on every flagged weekday
func Daily() Frequency {
	return Frequency{kind: KindDaily, interval: 1}
}

// Weekly recurs on flagged weekdays every interval weeks
func Weekly(interval int) (Frequency, error) {
	if interval < 1 {
		return Frequency{}, validation.New(validation.InvalidFrequency,
			"weekly interval must be a positive integer, got %d", interval)
	}
	return Frequency{kind: KindWeekly, interval: interval}, nil
}

// Monthly recurs once every interval months on the first or last flagged weekday
func Monthly(interval int, position Position) (Frequency, error) {
	if interval < 1 {
		return Frequency{}, validation.New(validation.InvalidFrequency,
			"monthly interval must be a positive integer, got %d", interval)
	}
	if position != PositionFirst && position != PositionLast {
		return Frequency{}, validation.New(validation.InvalidFrequency,
			"position accepts only 'first' (1) or 'last' (-1), got %d", int(position))
	}
	return Frequency{kind: KindMonthly, interval: interval, position: position}, nil
}

// ParseFrequency builds a Frequency from its token: "D", "W" or "M".
// interval is ignored for "D"; position is only used by "M".
func ParseFrequency(token string, interval int, position Position) (Frequency, error) {
	switch token {
	case "D":
		return Daily(), nil
	case "W":
		return Weekly(interval)
	case "M":
		return Monthly(interval, position)
	}
	return Frequency{}, validation.New(validation.InvalidFrequency,
		"frequency accepts only the following values: 'D', 'W' and 'M', got %q", token)
}

// Kind returns the recurrence family
func (f Frequency) Kind() Kind { return f.kind }

// Interval returns the repeat count (always 1 for Daily)
func (f Frequency) Interval() int { return f.interval }

// Position returns the monthly position (meaningless for Daily and Weekly)
func (f Frequency) Position() Position { return f.position }

// Validate rejects the zero Frequency
func (f Frequency) Validate() error {
	switch f.kind {
	case KindDaily:
		return nil
	case KindWeekly, KindMonthly:
		if f.interval < 1 {
			return validation.New(validation.InvalidFrequency, "interval must be a positive integer")
		}
		return nil
	}
	return validation.New(validation.InvalidFrequency, "frequency is not set")
}

func (f Frequency) String() string {
	switch f.kind {
	case KindDaily:
		return "D"
	case KindWeekly:
		return "W/" + strconv.Itoa(f.interval)
	case KindMonthly:
		return fmt.Sprintf("M/%d/%s", f.interval, f.position)
	}
	return "invalid"
}
