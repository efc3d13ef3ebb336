package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/internal/calendar"
	"github.com/vestalisvirginis/filehole/internal/config"
)

func newTestDaemon(t *testing.T, fs afero.Fs, jobs []config.JobConfig) (*Daemon, *StateManager) {
	t.Helper()
	auditor := audit.NewAuditor(calendar.NewRegistry(zap.NewNop()), audit.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	state := NewStateManager(fs, "/state/watch.json", zap.NewNop())
	require.NoError(t, state.Load())

	d := NewDaemon(auditor, audit.NewGlobLister(fs), jobs, state, Options{
		DailyHour:   7,
		DailyMinute: 30,
		Location:    time.UTC,
		Concurrency: 2,
	}, zap.NewNop())
	return d, state
}

func deliveryJob(name, path, country string) config.JobConfig {
	return config.JobConfig{
		Name:        name,
		Path:        path,
		DatePattern: "[0-9]{8}",
		DateFormat:  "%Y%m%d",
		Country:     country,
		StartDate:   "2022-07-11",
		EndDate:     "2022-07-15",
	}
}

func TestRunOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"20220711", "20220712", "20220715"} {
		require.NoError(t, afero.WriteFile(fs, "/in/fr/file_"+name+".csv", nil, 0o644))
		require.NoError(t, afero.WriteFile(fs, "/in/nl/file_"+name+".csv", nil, 0o644))
	}

	d, state := newTestDaemon(t, fs, []config.JobConfig{
		deliveryJob("fr", "/in/fr/*.csv", "FR"),
		deliveryJob("nl", "/in/nl/*.csv", "NL"),
		deliveryJob("broken", "/in/fr/*.csv", "XX"),
	})

	results, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 2022-07-14 is a holiday in France only
	assert.Equal(t, []string{"2022-07-13"}, formatted(results[0].Missing))
	assert.Equal(t, []string{"2022-07-13", "2022-07-14"}, formatted(results[1].Missing))
	assert.Nil(t, results[2])

	fr, ok := state.Job("fr")
	require.True(t, ok)
	assert.Equal(t, []string{"2022-07-13"}, fr.Missing)
	assert.Empty(t, fr.Error)

	broken, ok := state.Job("broken")
	require.True(t, ok)
	assert.Contains(t, broken.Error, "unknown_country")
}

func TestRunOnce_Cancelled(t *testing.T) {
	d, _ := newTestDaemon(t, afero.NewMemMapFs(), []config.JobConfig{deliveryJob("fr", "/in/*.csv", "FR")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.RunOnce(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateNextRun(t *testing.T) {
	d, _ := newTestDaemon(t, afero.NewMemMapFs(), nil)

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2022, 7, 12, 6, 0, 0, 0, time.UTC), time.Date(2022, 7, 12, 7, 30, 0, 0, time.UTC)},
		{time.Date(2022, 7, 12, 7, 30, 0, 0, time.UTC), time.Date(2022, 7, 13, 7, 30, 0, 0, time.UTC)},
		{time.Date(2022, 7, 12, 23, 0, 0, 0, time.UTC), time.Date(2022, 7, 13, 7, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := d.calculateNextRun(tt.now)
		if !got.Equal(tt.want) {
			t.Errorf("calculateNextRun(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestShouldRunAt(t *testing.T) {
	d, _ := newTestDaemon(t, afero.NewMemMapFs(), nil)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	d.opts.Location = paris

	// 07:30 in Paris is 05:30 UTC in summer
	assert.True(t, d.shouldRunAt(time.Date(2022, 7, 12, 5, 30, 20, 0, time.UTC)))
	assert.False(t, d.shouldRunAt(time.Date(2022, 7, 12, 7, 30, 0, 0, time.UTC)))
}

func TestStateManager_SaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, state := newTestDaemon(t, fs, nil)

	state.MarkRun(time.Date(2022, 7, 12, 7, 30, 0, 0, time.UTC), time.Date(2022, 7, 12, 7, 30, 5, 0, time.UTC))
	state.RecordError("sales", assert.AnError, time.Date(2022, 7, 12, 7, 30, 5, 0, time.UTC))
	require.NoError(t, state.Save())

	reloaded := NewStateManager(fs, "/state/watch.json", zap.NewNop())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "2022-07-12", reloaded.LastRunDate())

	sales, ok := reloaded.Job("sales")
	require.True(t, ok)
	assert.Equal(t, assert.AnError.Error(), sales.Error)
	assert.Equal(t, []string{}, sales.Missing)
}

func TestStateManager_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/state/watch.json", []byte("{not json"), 0o644))

	err := NewStateManager(fs, "/state/watch.json", zap.NewNop()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state file")
}

func formatted(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}
