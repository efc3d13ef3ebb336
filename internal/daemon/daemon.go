package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/internal/config"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Options configures the daily schedule of a Daemon
type Options struct {
	DailyHour   int            // Hour to run the daily audit (0-23)
	DailyMinute int            // Minute to run the daily audit (0-59)
	Location    *time.Location // Timezone of DailyHour:DailyMinute and of "today"
	Concurrency int            // Jobs audited at once
	MetricsAddr string         // Serve /metrics here when set
	Gatherer    prometheus.Gatherer
}

// Daemon re-audits every configured job once a day
type Daemon struct {
	auditor *audit.Auditor
	lister  audit.FileLister
	jobs    []config.JobConfig
	state   *StateManager
	opts    Options
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time
	mu      sync.Mutex // Protect against concurrent runs
	running bool
}

// NewDaemon creates a new daemon instance
func NewDaemon(auditor *audit.Auditor, lister audit.FileLister, jobs []config.JobConfig, state *StateManager, opts Options, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Daemon{
		auditor: auditor,
		lister:  lister,
		jobs:    jobs,
		state:   state,
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Start runs the daemon until Stop is called or SIGINT/SIGTERM is received
func (d *Daemon) Start() error {
	d.logger.Info("Daemon started",
		zap.Int("daily_hour", d.opts.DailyHour),
		zap.Int("daily_minute", d.opts.DailyMinute),
		zap.String("timezone", d.opts.Location.String()),
		zap.Int("jobs", len(d.jobs)))

	var server *http.Server
	if d.opts.MetricsAddr != "" {
		server = d.startMetricsServer()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				d.logger.Warn("Failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	// Run immediately if the scheduled time already passed today
	now := d.now().In(d.opts.Location)
	scheduledToday := d.scheduledOn(now)
	if !now.Before(scheduledToday) && d.state.LastRunDate() != now.Format(dateutil.ISODate) {
		d.logger.Info("Scheduled time already passed today, running audit now",
			zap.Time("scheduled_time", scheduledToday),
			zap.Time("current_time", now))
		d.runDaily(now)
	}

	nextRun := d.calculateNextRun(d.now())
	d.logger.Info("Next audit scheduled",
		zap.Time("next_run", nextRun),
		zap.Duration("wait_duration", nextRun.Sub(d.now())))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Check every minute if it's time to run
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			return nil

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			return nil

		case tick := <-ticker.C:
			if !d.shouldRunAt(tick) {
				continue
			}
			local := tick.In(d.opts.Location)
			if d.state.LastRunDate() == local.Format(dateutil.ISODate) {
				d.logger.Debug("Already ran today, skipping")
				continue
			}
			d.logger.Info("Starting scheduled audit", zap.Time("time", local))
			d.runDaily(local)

			nextRun = d.calculateNextRun(d.now())
			d.logger.Info("Next audit scheduled",
				zap.Time("next_run", nextRun),
				zap.Duration("wait_duration", nextRun.Sub(d.now())))
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) runDaily(now time.Time) {
	if _, err := d.RunOnce(d.ctx); err != nil {
		d.logger.Error("Daily audit failed", zap.Error(err))
		return
	}
	d.state.MarkRun(now, d.now())
	if err := d.state.Save(); err != nil {
		d.logger.Error("Failed to save watch state", zap.Error(err))
	}
}

// RunOnce audits every job for today, at most Concurrency at a time.
// A failing job is recorded and does not stop the others; results come back in job order
// with nil entries for failed jobs.
func (d *Daemon) RunOnce(ctx context.Context) ([]*audit.Result, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil, fmt.Errorf("audit already in progress")
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	today := dateutil.Today(d.opts.Location)
	results := make([]*audit.Result, len(d.jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for i := range d.jobs {
		i := i
		job := d.jobs[i]
		g.Go(func() error {
			result, err := d.runJob(gctx, job, today)
			if err != nil {
				d.logger.Error("Job audit failed", zap.String("job", job.Name), zap.Error(err))
				d.state.RecordError(job.Name, err, d.now())
				return nil
			}
			results[i] = result
			d.state.RecordResult(result, d.now())
			if result.HasGaps() {
				d.logger.Warn("Missing deliveries",
					zap.String("job", job.Name),
					zap.Strings("missing", dateutil.FormatDates(result.Missing)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("audit interrupted: %w", err)
	}
	return results, nil
}

func (d *Daemon) runJob(ctx context.Context, job config.JobConfig, today time.Time) (*audit.Result, error) {
	plan, err := job.Plan(today)
	if err != nil {
		return nil, fmt.Errorf("failed to plan job %s: %w", job.Name, err)
	}
	return d.auditor.Run(ctx, d.lister, plan)
}

func (d *Daemon) startMetricsServer() *http.Server {
	gatherer := d.opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              d.opts.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		d.logger.Info("Serving metrics", zap.String("addr", d.opts.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return server
}

// scheduledOn returns the scheduled run time on the day of now
func (d *Daemon) scheduledOn(now time.Time) time.Time {
	local := now.In(d.opts.Location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		d.opts.DailyHour, d.opts.DailyMinute, 0, 0, d.opts.Location)
}

// calculateNextRun returns the next scheduled run strictly after now
func (d *Daemon) calculateNextRun(now time.Time) time.Time {
	today := d.scheduledOn(now)
	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// shouldRunAt checks if the audit should run at the given time (within a 1 minute window)
func (d *Daemon) shouldRunAt(now time.Time) bool {
	local := now.In(d.opts.Location)
	return local.Hour() == d.opts.DailyHour && local.Minute() == d.opts.DailyMinute
}
