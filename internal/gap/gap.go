// Package gap diffs expected delivery dates against observed ones.
package gap

import (
	"time"

	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Missing returns sorted(expected - holidays - observed).
// Nil sets are treated as empty.
func Missing(expected []time.Time, holidays, observed dateutil.DateSet) []time.Time {
	missing := dateutil.NewDateSet()
	for _, day := range expected {
		if holidays.Has(day) || observed.Has(day) {
			continue
		}
		missing.Add(day)
	}
	return missing.Sorted()
}

// Unexpected returns the observed dates that no expected date accounts for, sorted.
// These are deliveries on holidays or off-schedule days.
func Unexpected(expected []time.Time, observed dateutil.DateSet) []time.Time {
	want := dateutil.NewDateSet(expected...)
	extra := dateutil.NewDateSet()
	for day := range observed {
		if !want.Has(day) {
			extra.Add(day)
		}
	}
	return extra.Sorted()
}
