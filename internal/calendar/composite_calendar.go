package calendar

import (
	"context"
	"fmt"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// CompositeLookup implements HolidayLookup with fallback strategy
// Primary: usually NagerLookup (API) or Registry
// Fallback: usually FileLookup (local file)
type CompositeLookup struct {
	primary  HolidayLookup
	fallback HolidayLookup
	logger   *zap.Logger
}

// NewCompositeLookup creates a new CompositeLookup
func NewCompositeLookup(primary, fallback HolidayLookup, logger *zap.Logger) *CompositeLookup {
	return &CompositeLookup{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// HolidaysFor asks the primary lookup and, on any error, the fallback.
// When both fail the fallback error is returned so an UnknownCountry from it keeps its kind.
func (cl *CompositeLookup) HolidaysFor(ctx context.Context, country string, subdivision mo.Option[string], years []int) (dateutil.DateSet, error) {
	holidays, err := cl.primary.HolidaysFor(ctx, country, subdivision, years)
	if err == nil {
		return holidays, nil
	}

	cl.logger.Warn("Primary holiday lookup failed, falling back",
		zap.String("country", country),
		zap.Ints("years", years),
		zap.Error(err))

	holidays, fallbackErr := cl.fallback.HolidaysFor(ctx, country, subdivision, years)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%v: %w", err, fallbackErr)
	}
	return holidays, nil
}

// LoadFallback loads the fallback lookup (if FileLookup)
func (cl *CompositeLookup) LoadFallback() error {
	if fl, ok := cl.fallback.(*FileLookup); ok {
		if err := fl.Load(); err != nil {
			return fmt.Errorf("failed to load fallback holidays: %w", err)
		}
		cl.logger.Info("Fallback holidays loaded successfully")
	}
	return nil
}
