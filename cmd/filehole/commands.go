package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/internal/calendar"
	"github.com/vestalisvirginis/filehole/internal/config"
	"github.com/vestalisvirginis/filehole/internal/daemon"
	"github.com/vestalisvirginis/filehole/internal/gap"
	"github.com/vestalisvirginis/filehole/internal/report"
	"github.com/vestalisvirginis/filehole/internal/schedule"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// jobFlags describe an ad-hoc job on the command line
type jobFlags struct {
	path         string
	datePattern  string
	dateFormat   string
	country      string
	subdivision  string
	fromStr      string
	toStr        string
	frequency    string
	interval     int
	position     string
	weekSchedule string
	boundary     string
	rollHolidays bool
}

func (f *jobFlags) bindSchedule(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fromStr, "from", "", "Start date (YYYY-MM-DD, default: January 1st of the end year)")
	cmd.Flags().StringVar(&f.toStr, "to", "", "End date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&f.frequency, "frequency", config.DefaultFrequency, "Recurrence: D, W or M")
	cmd.Flags().IntVar(&f.interval, "interval", 1, "Repeat every N weeks (W) or months (M)")
	cmd.Flags().StringVar(&f.position, "position", "first", "Monthly occurrence: first or last")
	cmd.Flags().StringVar(&f.weekSchedule, "week-schedule", config.DefaultWeekSchedule, "Delivery weekdays, Monday first")
	cmd.Flags().StringVar(&f.boundary, "boundary", config.DefaultBoundary, "Range endpoints to include: both, left, right or neither")
	cmd.Flags().BoolVar(&f.rollHolidays, "roll-holidays", false, "Move monthly deliveries off holidays")
}

func (f *jobFlags) bindCalendar(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.country, "country", "", "ISO country code for holidays (e.g. FR)")
	cmd.Flags().StringVar(&f.subdivision, "subdivision", "", "Country subdivision (e.g. BY)")
}

func (f *jobFlags) bindFiles(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "path", "", "Glob of delivered files (ad-hoc job instead of configured jobs)")
	cmd.Flags().StringVar(&f.datePattern, "date-pattern", "[0-9]{8}", "Regular expression locating the date in a file name")
	cmd.Flags().StringVar(&f.dateFormat, "date-format", "%Y%m%d", "strftime format (or Go layout) of the date")
}

func (f *jobFlags) job() config.JobConfig {
	job := config.JobConfig{
		Name:         "ad-hoc",
		Path:         f.path,
		DatePattern:  f.datePattern,
		DateFormat:   f.dateFormat,
		Country:      f.country,
		Subdivision:  f.subdivision,
		StartDate:    f.fromStr,
		EndDate:      f.toStr,
		Frequency:    f.frequency,
		Interval:     f.interval,
		Position:     f.position,
		Boundary:     f.boundary,
		RollHolidays: f.rollHolidays,
	}
	if f.weekSchedule != "" {
		job.WeekSchedule = f.weekSchedule
	}
	return job
}

func auditCmd() *cobra.Command {
	var flags jobFlags
	var jobName string
	var output string
	var failOnGaps bool
	var teeOutput string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report missing deliveries",
		Long:  "Audit the configured jobs, or an ad-hoc job given with --path, and list the expected delivery dates with no file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			restore, err := openTee(teeOutput)
			if err != nil {
				return err
			}
			defer restore()

			cfg, err := loadConfig(flags.path != "")
			if err != nil {
				return err
			}

			jobs := cfg.Jobs
			switch {
			case flags.path != "":
				jobs = []config.JobConfig{flags.job()}
			case jobName != "":
				job, ok := cfg.Job(jobName)
				if !ok {
					return fmt.Errorf("no job named '%s' in %s", jobName, configPath)
				}
				jobs = []config.JobConfig{job}
			}
			if len(jobs) == 0 {
				return fmt.Errorf("nothing to audit: configure jobs or pass --path")
			}

			lookup, err := buildHolidayLookup(cfg)
			if err != nil {
				return err
			}

			loc, err := cfg.Daemon.GetLocation()
			if err != nil {
				return err
			}
			today := dateutil.Today(loc)

			auditor := audit.NewAuditor(lookup, nil, logger)
			lister := audit.NewOSLister()
			ctx := cmd.Context()

			logger.Info("Starting audit", zap.Int("jobs", len(jobs)), zap.Time("today", today))

			results := make([]*audit.Result, 0, len(jobs))
			for _, job := range jobs {
				plan, err := job.Plan(today)
				if err != nil {
					return fmt.Errorf("job %s: %w", job.Name, err)
				}
				result, err := auditor.Run(ctx, lister, plan)
				if err != nil {
					return fmt.Errorf("job %s: %w", job.Name, err)
				}
				results = append(results, result)
			}

			if err := report.WriteResults(outWriter, format, results); err != nil {
				return err
			}

			if failOnGaps {
				for _, r := range results {
					if r.HasGaps() {
						return errGapsFound
					}
				}
			}
			return nil
		},
	}

	flags.bindFiles(cmd)
	flags.bindCalendar(cmd)
	flags.bindSchedule(cmd)
	cmd.Flags().StringVar(&jobName, "job", "", "Audit only the configured job with this name")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&failOnGaps, "fail-on-gaps", false, "Exit with status 2 when a delivery is missing")
	cmd.Flags().StringVar(&teeOutput, "tee-output", "", "Mirror output to file")

	return cmd
}

func scheduleCmd() *cobra.Command {
	var flags jobFlags
	var output string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the expected delivery dates",
		Long:  "Print the delivery schedule for a date range. With --country, holidays are left out of the list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			loc, err := cfg.Daemon.GetLocation()
			if err != nil {
				return err
			}

			job := flags.job()
			plan, err := job.Plan(dateutil.Today(loc))
			if err != nil {
				return err
			}
			req := plan.Request

			holidays := dateutil.NewDateSet()
			if flags.country != "" {
				lookup, err := buildHolidayLookup(cfg)
				if err != nil {
					return err
				}
				holidays, err = calendar.Build(cmd.Context(), lookup, req.Country, req.Subdivision, req.Range)
				if err != nil {
					return err
				}
			}

			var opts []schedule.Option
			if req.RollHolidays {
				opts = append(opts, schedule.WithExclusions(holidays))
			}
			expected, err := schedule.Generate(req.Range, req.Mask, req.Frequency, opts...)
			if err != nil {
				return err
			}

			// expected minus holidays, nothing observed
			return report.WriteDates(outWriter, format, gap.Missing(expected, holidays, nil))
		},
	}

	flags.bindCalendar(cmd)
	flags.bindSchedule(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")

	return cmd
}

func holidaysCmd() *cobra.Command {
	var flags jobFlags
	var output string

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Print the public holidays of a country",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			loc, err := cfg.Daemon.GetLocation()
			if err != nil {
				return err
			}

			job := flags.job()
			plan, err := job.Plan(dateutil.Today(loc))
			if err != nil {
				return err
			}

			lookup, err := buildHolidayLookup(cfg)
			if err != nil {
				return err
			}

			holidays, err := calendar.Build(cmd.Context(), lookup, flags.country, plan.Request.Subdivision, plan.Request.Range)
			if err != nil {
				return err
			}
			return report.WriteDates(outWriter, format, holidays.Sorted())
		},
	}

	flags.bindCalendar(cmd)
	cmd.Flags().StringVar(&flags.fromStr, "from", "", "Start date (YYYY-MM-DD, default: January 1st of the end year)")
	cmd.Flags().StringVar(&flags.toStr, "to", "", "End date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")

	return cmd
}

func watchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Audit all configured jobs every day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if len(cfg.Jobs) == 0 {
				return fmt.Errorf("watch needs at least one configured job")
			}

			lookup, err := buildHolidayLookup(cfg)
			if err != nil {
				return err
			}
			loc, err := cfg.Daemon.GetLocation()
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			auditor := audit.NewAuditor(lookup, audit.NewMetrics(registry), logger)

			state := daemon.NewStateManager(afero.NewOsFs(), cfg.Daemon.GetStateFile(), logger)
			if err := state.Load(); err != nil {
				return fmt.Errorf("failed to load watch state: %w", err)
			}

			hour, minute := cfg.Daemon.GetDailyTime()
			d := daemon.NewDaemon(auditor, audit.NewOSLister(), cfg.Jobs, state, daemon.Options{
				DailyHour:   hour,
				DailyMinute: minute,
				Location:    loc,
				Concurrency: cfg.Daemon.GetConcurrency(),
				MetricsAddr: cfg.Daemon.MetricsAddr,
				Gatherer:    registry,
			}, logger)

			if once {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				results, err := d.RunOnce(ctx)
				if err != nil {
					return err
				}
				if err := state.Save(); err != nil {
					return err
				}
				done := make([]*audit.Result, 0, len(results))
				for _, r := range results {
					if r != nil {
						done = append(done, r)
					}
				}
				return report.WriteResults(outWriter, report.FormatText, done)
			}

			return d.Start()
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Audit every job once and exit")

	return cmd
}
