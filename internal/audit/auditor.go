// Package audit finds the scheduled deliveries that never arrived.
//
// An audit takes file identifiers that were already listed by the caller, recovers a
// delivery date from each of them, builds the expected schedule for a date range and
// diffs the two, leaving holidays out.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/calendar"
	"github.com/vestalisvirginis/filehole/internal/gap"
	"github.com/vestalisvirginis/filehole/internal/schedule"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Request bundles everything one audit needs
type Request struct {
	// Job labels logs and metrics; optional
	Job string

	Files       []string
	DatePattern string
	DateFormat  string

	Country     string
	Subdivision mo.Option[string]

	Range     schedule.DateRange
	Mask      schedule.WeekdayMask
	Frequency schedule.Frequency

	// RollHolidays makes monthly picks skip holidays instead of dropping the delivery
	RollHolidays bool
}

// Result is the outcome of one audit. Date slices are sorted ascending.
type Result struct {
	RunID     string
	Job       string
	Range     schedule.DateRange
	Frequency schedule.Frequency

	Expected   []time.Time
	Holidays   []time.Time
	Observed   []time.Time
	Missing    []time.Time
	Unexpected []time.Time

	// Files whose identifier did not match the date pattern
	Unmatched []string

	Duration time.Duration
}

// HasGaps reports whether any expected delivery is missing
func (r *Result) HasGaps() bool {
	return len(r.Missing) > 0
}

// Auditor runs audits. It holds no per-audit state and is safe for concurrent use.
type Auditor struct {
	holidays calendar.HolidayLookup
	metrics  *Metrics
	logger   *zap.Logger
}

// NewAuditor creates a new auditor. metrics may be nil.
func NewAuditor(holidays calendar.HolidayLookup, metrics *Metrics, logger *zap.Logger) *Auditor {
	return &Auditor{
		holidays: holidays,
		metrics:  metrics,
		logger:   logger,
	}
}

// Audit computes the missing deliveries for req.
// Configuration errors are returned as *validation.Error and abort the audit.
func (a *Auditor) Audit(ctx context.Context, req Request) (*Result, error) {
	return a.execute(ctx, req, time.Now())
}

// execute audits req and reports the time elapsed since started
func (a *Auditor) execute(ctx context.Context, req Request, started time.Time) (*Result, error) {
	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID), zap.String("job", req.Job))

	result, err := a.audit(ctx, req, logger)
	if err != nil {
		a.metrics.IncrementError(req.Job)
		logger.Error("Audit failed", zap.Error(err))
		return nil, err
	}

	result.RunID = runID
	result.Duration = time.Since(started)
	a.metrics.ObserveAudit(req.Job, len(result.Missing), result.Duration)

	logger.Info("Audit completed",
		zap.String("range", req.Range.String()),
		zap.String("frequency", req.Frequency.String()),
		zap.Int("expected", len(result.Expected)),
		zap.Int("observed", len(result.Observed)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (a *Auditor) audit(ctx context.Context, req Request, logger *zap.Logger) (*Result, error) {
	if err := req.Frequency.Validate(); err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(req.DatePattern, req.DateFormat)
	if err != nil {
		return nil, err
	}

	observed, unmatched, err := observe(extractor, req.Files)
	if err != nil {
		return nil, err
	}
	if len(unmatched) > 0 {
		logger.Debug("Files without a date", zap.Strings("files", unmatched))
	}

	holidays, err := calendar.Build(ctx, a.holidays, req.Country, req.Subdivision, req.Range)
	if err != nil {
		return nil, err
	}

	var opts []schedule.Option
	if req.RollHolidays {
		opts = append(opts, schedule.WithExclusions(holidays))
	}
	expected, err := schedule.Generate(req.Range, req.Mask, req.Frequency, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule: %w", err)
	}

	return &Result{
		Job:        req.Job,
		Range:      req.Range,
		Frequency:  req.Frequency,
		Expected:   expected,
		Holidays:   holidays.Sorted(),
		Observed:   observed.Sorted(),
		Missing:    gap.Missing(expected, holidays, observed),
		Unexpected: gap.Unexpected(expected, observed),
		Unmatched:  unmatched,
	}, nil
}

// observe builds the set of delivered dates. Identifiers without a match are returned
// separately; a match that does not parse fails the whole audit.
func observe(extractor *Extractor, files []string) (dateutil.DateSet, []string, error) {
	observed := dateutil.NewDateSet()
	var unmatched []string
	for _, file := range files {
		date, ok, err := extractor.Extract(file)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			unmatched = append(unmatched, file)
			continue
		}
		observed.Add(date)
	}
	return observed, unmatched, nil
}

// Plan is a named, reusable audit whose files are listed at run time
type Plan struct {
	Name    string
	Path    string
	Request Request
}

// Run lists the files of plan with lister, then audits them. The reported duration
// includes the listing.
func (a *Auditor) Run(ctx context.Context, lister FileLister, plan Plan) (*Result, error) {
	started := time.Now()
	files, err := lister.ListMatching(plan.Path)
	if err != nil {
		a.metrics.IncrementError(plan.Name)
		return nil, fmt.Errorf("failed to list files for %s: %w", plan.Name, err)
	}

	req := plan.Request
	req.Job = plan.Name
	req.Files = files
	return a.execute(ctx, req, started)
}
