package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestalisvirginis/filehole/internal/schedule"
	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

const validConfig = `
calendar:
  source: nager
  api_url: https://date.nager.at
  fallback_file: holidays.txt
  cache_ttl: 12h
daemon:
  daily_time: "06:30"
  timezone: Europe/Paris
  concurrency: 2
jobs:
  - name: sales
    path: /data/sales/*.csv
    date_pattern: "[0-9]{8}"
    date_format: "%Y%m%d"
    country: FR
    start_date: "2022-01-01"
    end_date: "2022-07-12"
  - name: weekend-export
    path: /data/export/*.parquet
    date_pattern: "_([0-9-]{10})\\."
    date_format: "%Y-%m-%d"
    country: DE
    subdivision: BY
    frequency: W
    interval: 2
    week_schedule: "0000011"
  - name: month-end
    path: /data/close/*.xlsx
    date_pattern: "[0-9]{8}"
    date_format: "%Y%m%d"
    country: NL
    frequency: M
    position: last
    boundary: left
    roll_holidays: true
    week_schedule: [true, true, true, true, true, false, false]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, SourceNager, cfg.Calendar.GetSource())
	assert.Equal(t, 12*time.Hour, cfg.Calendar.GetCacheTTL())
	assert.Equal(t, 2, cfg.Daemon.GetConcurrency())
	require.Len(t, cfg.Jobs, 3)

	hour, minute := cfg.Daemon.GetDailyTime()
	assert.Equal(t, 6, hour)
	assert.Equal(t, 30, minute)

	loc, err := cfg.Daemon.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	job, ok := cfg.Job("weekend-export")
	require.True(t, ok)
	plan, err := job.Plan(dateutil.Date(2022, 7, 12))
	require.NoError(t, err)
	assert.Equal(t, "W/2", plan.Request.Frequency.String())
	assert.Equal(t, "0000011", plan.Request.Mask.String())
	assert.Equal(t, "BY", plan.Request.Subdivision.OrEmpty())

	job, ok = cfg.Job("month-end")
	require.True(t, ok)
	plan, err = job.Plan(dateutil.Date(2022, 7, 12))
	require.NoError(t, err)
	assert.Equal(t, schedule.PositionLast, plan.Request.Frequency.Position())
	assert.Equal(t, schedule.BoundaryLeft, plan.Request.Range.Boundary)
	assert.True(t, plan.Request.RollHolidays)
	assert.Equal(t, schedule.MondayToFriday, plan.Request.Mask)

	_, ok = cfg.Job("nope")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    validation.Kind
		message string
	}{
		{
			name: "unquoted week schedule",
			content: `
jobs:
  - name: a
    path: /x/*
    date_pattern: "[0-9]{8}"
    date_format: "%Y%m%d"
    country: FR
    week_schedule: 1111100
`,
			kind: validation.WrongType,
		},
		{
			name: "bad frequency token",
			content: `
jobs:
  - name: a
    path: /x/*
    frequency: daily
`,
			kind: validation.InvalidFrequency,
		},
		{
			name: "start after end",
			content: `
jobs:
  - name: a
    path: /x/*
    start_date: "2022-08-01"
    end_date: "2022-07-01"
`,
			kind: validation.InvalidDateRange,
		},
		{
			name: "bad weekmask",
			content: `
jobs:
  - name: a
    path: /x/*
    week_schedule: "11111"
`,
			kind: validation.InvalidWeekmask,
		},
		{
			name:    "unknown calendar source",
			content: "calendar:\n  source: ical\n",
			message: "calendar.source",
		},
		{
			name:    "file source without file",
			content: "calendar:\n  source: file\n",
			message: "calendar.fallback_file",
		},
		{
			name:    "job without name",
			content: "jobs:\n  - path: /x/*\n",
			message: "jobs[0].name",
		},
		{
			name:    "duplicate job",
			content: "jobs:\n  - name: a\n    path: /x/*\n  - name: a\n    path: /y/*\n",
			message: "used twice",
		},
		{
			name:    "bad timezone",
			content: "daemon:\n  timezone: Mars/Olympus\n",
			message: "daemon.timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			} else {
				assert.True(t, validation.IsKind(err, tt.kind), "got %v", err)
			}
		})
	}
}

func TestJobConfig_PlanDefaults(t *testing.T) {
	job := JobConfig{Name: "sales", Path: "/data/*.csv", Country: "fr"}

	plan, err := job.Plan(time.Date(2022, 7, 12, 18, 45, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2022-01-01..2022-07-12", plan.Request.Range.String())
	assert.Equal(t, schedule.BoundaryBoth, plan.Request.Range.Boundary)
	assert.Equal(t, schedule.MondayToFriday, plan.Request.Mask)
	assert.Equal(t, "D", plan.Request.Frequency.String())
	assert.True(t, plan.Request.Subdivision.IsAbsent())
	assert.Equal(t, "sales", plan.Name)
	assert.Equal(t, "/data/*.csv", plan.Path)
}

func TestJobConfig_PlanResolvedPerCall(t *testing.T) {
	job := JobConfig{Name: "sales", Path: "/data/*.csv"}

	first, err := job.Plan(dateutil.Date(2022, 7, 12))
	require.NoError(t, err)
	second, err := job.Plan(dateutil.Date(2023, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, "2022-01-01..2022-07-12", first.Request.Range.String())
	assert.Equal(t, "2023-01-01..2023-02-01", second.Request.Range.String())
}

func TestJobConfig_PlanOnReturnedValue(t *testing.T) {
	newJob := func() JobConfig { return JobConfig{Name: "ad-hoc", Path: "/in/*.csv", EndDate: "2022-07-12"} }

	plan, err := newJob().Plan(dateutil.Date(2030, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01..2022-07-12", plan.Request.Range.String())
}

func TestLoad_TodayInDaemonTimezone(t *testing.T) {
	// UTC+14: the local date runs ahead of UTC for most of the day
	loc, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)
	today := dateutil.Today(loc).Format(dateutil.ISODate)

	cfg, err := Load(writeConfig(t, `
daemon:
  timezone: Pacific/Kiritimati
jobs:
  - name: sales
    path: /data/sales/*.csv
    start_date: "`+today+`"
`))
	require.NoError(t, err)
	require.Len(t, cfg.Jobs, 1)
}

func TestDaemonConfig_Defaults(t *testing.T) {
	var d DaemonConfig
	hour, minute := d.GetDailyTime()
	assert.Equal(t, 7, hour)
	assert.Equal(t, 0, minute)
	assert.Equal(t, 4, d.GetConcurrency())
	assert.Equal(t, "data/watch_state.json", d.GetStateFile())

	d.DailyTime = "25:99"
	hour, minute = d.GetDailyTime()
	assert.Equal(t, 7, hour)
	assert.Equal(t, 0, minute)

	var c CalendarConfig
	assert.Equal(t, SourceBuiltin, c.GetSource())
	assert.Equal(t, 24*time.Hour, c.GetCacheTTL())
}
