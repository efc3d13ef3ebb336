package calendar

import (
	"context"
	"sort"
	"sync"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/us"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Registry implements HolidayLookup from the holiday tables compiled into rickar/cal.
// It has national tables only; Register adds more countries or regional tables.
type Registry struct {
	mu        sync.RWMutex
	countries map[string]*countryTable
	logger    *zap.Logger
}

type countryTable struct {
	national []*cal.Holiday
	regions  map[string][]*cal.Holiday

	// observedIn reports whether h is a day off in year; nil means every year
	observedIn func(h *cal.Holiday, year int) bool
}

// NewRegistry creates a Registry preloaded with FR, NL, DE and US
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		countries: make(map[string]*countryTable),
		logger:    logger,
	}
	r.Register("FR", fr.Holidays)
	r.Register("NL", dutchHolidays())
	r.Register("DE", de.Holidays)
	r.Register("US", us.Holidays)
	r.countries["NL"].observedIn = dutchObservedIn
	return r
}

// dutchHolidays leaves out Good Friday, which is not a general day off in the Netherlands
func dutchHolidays() []*cal.Holiday {
	holidays := make([]*cal.Holiday, 0, len(nl.Holidays))
	for _, h := range nl.Holidays {
		if h != nl.GoedeVrijdag {
			holidays = append(holidays, h)
		}
	}
	return holidays
}

// dutchObservedIn keeps Liberation Day in lustrum years only (2020, 2025, ...)
func dutchObservedIn(h *cal.Holiday, year int) bool {
	return h != nl.BevrijdingsDag || year%5 == 0
}

// Register sets the national holidays of a country
func (r *Registry) Register(country string, holidays []*cal.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()

	country = NormalizeCountry(country)
	table, ok := r.countries[country]
	if !ok {
		table = &countryTable{regions: make(map[string][]*cal.Holiday)}
		r.countries[country] = table
	}
	table.national = holidays
}

// RegisterRegion adds holidays observed only in one subdivision of a country,
// on top of the national ones
func (r *Registry) RegisterRegion(country, subdivision string, holidays []*cal.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()

	country = NormalizeCountry(country)
	table, ok := r.countries[country]
	if !ok {
		table = &countryTable{regions: make(map[string][]*cal.Holiday)}
		r.countries[country] = table
	}
	if code, ok := SubdivisionOf(subdivision).Get(); ok {
		table.regions[code] = holidays
	}
}

// Countries lists the registered country codes
func (r *Registry) Countries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.countries))
	for code := range r.countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HolidaysFor returns actual and observed dates of every registered holiday in years
func (r *Registry) HolidaysFor(_ context.Context, country string, subdivision mo.Option[string], years []int) (dateutil.DateSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	country = NormalizeCountry(country)
	table, ok := r.countries[country]
	if !ok {
		return nil, validation.New(validation.UnknownCountry, "no holiday table for country %q", country)
	}

	holidays := table.national
	if code, ok := NormalizeSubdivision(subdivision).Get(); ok {
		regional, found := table.regions[code]
		if !found {
			return nil, validation.New(validation.UnknownSubdivision,
				"no holiday table for subdivision %q of %s", code, country)
		}
		holidays = append(append([]*cal.Holiday{}, holidays...), regional...)
	}

	set := dateutil.NewDateSet()
	for _, year := range years {
		for _, h := range holidays {
			if table.observedIn != nil && !table.observedIn(h, year) {
				continue
			}
			actual, observed := h.Calc(year)
			if !actual.IsZero() {
				set.Add(actual)
			}
			if !observed.IsZero() {
				set.Add(observed)
			}
		}
	}

	r.logger.Debug("Holidays computed from builtin table",
		zap.String("country", country),
		zap.Ints("years", years),
		zap.Int("count", set.Len()))

	return set, nil
}
