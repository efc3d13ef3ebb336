package calendar

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/mo"

	"github.com/vestalisvirginis/filehole/internal/schedule"
	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// HolidayLookup returns the holidays of a country (and optionally one of its subdivisions)
// for whole calendar years
type HolidayLookup interface {
	// HolidaysFor fails with validation.UnknownCountry when the country is not known.
	// A None subdivision means national holidays only.
	HolidaysFor(ctx context.Context, country string, subdivision mo.Option[string], years []int) (dateutil.DateSet, error)
}

// Build returns the holidays of country/subdivision that fall inside rng (both endpoints
// included, whatever the range boundary)
func Build(ctx context.Context, lookup HolidayLookup, country string, subdivision mo.Option[string], rng schedule.DateRange) (dateutil.DateSet, error) {
	country = NormalizeCountry(country)
	if country == "" {
		return nil, validation.New(validation.UnknownCountry, "country is required")
	}

	all, err := lookup.HolidaysFor(ctx, country, NormalizeSubdivision(subdivision), rng.Years())
	if err != nil {
		return nil, fmt.Errorf("failed to look up holidays for %s: %w", country, err)
	}

	inRange := dateutil.NewDateSet()
	for day := range all {
		if !day.Before(rng.Start) && !day.After(rng.End) {
			inRange.Add(day)
		}
	}
	return inRange, nil
}

// NormalizeCountry upper-cases and trims an ISO 3166 country code
func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// NormalizeSubdivision upper-cases a subdivision code and maps blank values to None
func NormalizeSubdivision(subdivision mo.Option[string]) mo.Option[string] {
	code, ok := subdivision.Get()
	if !ok {
		return mo.None[string]()
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return mo.None[string]()
	}
	return mo.Some(code)
}

// SubdivisionOf turns a possibly empty subdivision code into an Option
func SubdivisionOf(code string) mo.Option[string] {
	return NormalizeSubdivision(mo.Some(code))
}

func containsYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}
