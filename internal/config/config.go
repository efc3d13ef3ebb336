package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/internal/calendar"
	"github.com/vestalisvirginis/filehole/internal/schedule"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Calendar sources
const (
	SourceBuiltin = "builtin"
	SourceNager   = "nager"
	SourceFile    = "file"
)

// Job defaults
const (
	DefaultFrequency    = "D"
	DefaultWeekSchedule = "1111100"
	DefaultBoundary     = "both"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Jobs     []JobConfig    `mapstructure:"jobs"`
}

// CalendarConfig selects where holidays come from
type CalendarConfig struct {
	Source       string `mapstructure:"source"`        // "builtin", "nager" or "file"
	APIURL       string `mapstructure:"api_url"`       // For nager source
	FallbackFile string `mapstructure:"fallback_file"` // Used when the primary source fails
	CacheTTL     string `mapstructure:"cache_ttl"`
}

// DaemonConfig represents watch mode configuration
type DaemonConfig struct {
	DailyTime   string `mapstructure:"daily_time"` // HH:MM in Timezone
	Timezone    string `mapstructure:"timezone"`
	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	StateFile   string `mapstructure:"state_file"`
	Concurrency int    `mapstructure:"concurrency"`
}

// JobConfig describes one delivery feed to audit
type JobConfig struct {
	Name        string `mapstructure:"name"`
	Path        string `mapstructure:"path"` // glob of delivered files
	DatePattern string `mapstructure:"date_pattern"`
	DateFormat  string `mapstructure:"date_format"`
	Country     string `mapstructure:"country"`
	Subdivision string `mapstructure:"subdivision"`
	StartDate   string `mapstructure:"start_date"` // default: January 1st of the end year
	EndDate     string `mapstructure:"end_date"`   // default: today
	Frequency   string `mapstructure:"frequency"`  // "D", "W" or "M"
	Interval    int    `mapstructure:"interval"`
	Position    string `mapstructure:"position"` // "first" or "last", monthly only

	// WeekSchedule stays untyped so that a YAML number is rejected instead of coerced
	WeekSchedule any `mapstructure:"week_schedule"`

	Boundary     string `mapstructure:"boundary"`
	RollHolidays bool   `mapstructure:"roll_holidays"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.filehole")
		v.AddConfigPath("/etc/filehole")
	}

	v.SetEnvPrefix("FILEHOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration. Jobs are checked by building their plan
// against today's date so every schedule error surfaces at load time.
func (c *Config) Validate() error {
	switch c.Calendar.GetSource() {
	case SourceBuiltin:
	case SourceNager:
		if c.Calendar.CacheTTL != "" {
			if _, err := time.ParseDuration(c.Calendar.CacheTTL); err != nil {
				return fmt.Errorf("calendar.cache_ttl is not a duration: %w", err)
			}
		}
	case SourceFile:
		if c.Calendar.FallbackFile == "" {
			return fmt.Errorf("calendar.fallback_file is required for file source")
		}
	default:
		return fmt.Errorf("calendar.source must be 'builtin', 'nager' or 'file', got '%s'", c.Calendar.Source)
	}

	loc, err := c.Daemon.GetLocation()
	if err != nil {
		return fmt.Errorf("daemon.timezone: %w", err)
	}
	if c.Daemon.Concurrency < 0 {
		return fmt.Errorf("daemon.concurrency must not be negative")
	}

	today := dateutil.Today(loc)
	seen := make(map[string]bool, len(c.Jobs))
	for i := range c.Jobs {
		job := &c.Jobs[i]
		if job.Name == "" {
			return fmt.Errorf("jobs[%d].name is required", i)
		}
		if seen[job.Name] {
			return fmt.Errorf("jobs[%d].name '%s' is used twice", i, job.Name)
		}
		seen[job.Name] = true

		if job.Path == "" {
			return fmt.Errorf("jobs[%d].path is required", i)
		}
		if _, err := job.Plan(today); err != nil {
			return fmt.Errorf("job '%s': %w", job.Name, err)
		}
	}

	return nil
}

// Job returns the job called name
func (c *Config) Job(name string) (JobConfig, bool) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return job, true
		}
	}
	return JobConfig{}, false
}

// GetSource returns the calendar source. Default: builtin
func (c *CalendarConfig) GetSource() string {
	if c.Source == "" {
		return SourceBuiltin
	}
	return strings.ToLower(c.Source)
}

// GetCacheTTL returns cache TTL duration
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

// GetDailyTime returns the configured daily audit time.
// Returns hour and minute (0-23, 0-59). Default: 07:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	if c.DailyTime == "" {
		return 7, 0
	}

	var h, m int
	_, err := fmt.Sscanf(c.DailyTime, "%d:%d", &h, &m)
	if err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 7, 0
	}
	return h, m
}

// GetLocation returns the daemon timezone. Default: UTC
func (c *DaemonConfig) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// GetConcurrency returns how many jobs may run at once. Default: 4
func (c *DaemonConfig) GetConcurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}
	return c.Concurrency
}

// GetStateFile returns the watch state path
func (c *DaemonConfig) GetStateFile() string {
	if c.StateFile == "" {
		return "data/watch_state.json"
	}
	return c.StateFile
}

// Plan resolves the job into an audit plan. Missing dates are resolved against today:
// the end date defaults to today and the start date to January 1st of the end year.
func (j JobConfig) Plan(today time.Time) (audit.Plan, error) {
	end := dateutil.Truncate(today)
	if j.EndDate != "" {
		parsed, err := dateutil.ParseDate(j.EndDate)
		if err != nil {
			return audit.Plan{}, fmt.Errorf("invalid end_date: %w", err)
		}
		end = parsed
	}

	start := dateutil.Date(end.Year(), time.January, 1)
	if j.StartDate != "" {
		parsed, err := dateutil.ParseDate(j.StartDate)
		if err != nil {
			return audit.Plan{}, fmt.Errorf("invalid start_date: %w", err)
		}
		start = parsed
	}

	boundary, err := schedule.ParseBoundary(orDefault(j.Boundary, DefaultBoundary))
	if err != nil {
		return audit.Plan{}, err
	}
	rng, err := schedule.NewDateRange(start, end, boundary)
	if err != nil {
		return audit.Plan{}, err
	}

	var rawMask any = DefaultWeekSchedule
	if j.WeekSchedule != nil {
		rawMask = j.WeekSchedule
	}
	mask, err := schedule.ParseWeekdayMask(rawMask)
	if err != nil {
		return audit.Plan{}, err
	}

	frequency, err := j.frequency()
	if err != nil {
		return audit.Plan{}, err
	}

	return audit.Plan{
		Name: j.Name,
		Path: j.Path,
		Request: audit.Request{
			Job:          j.Name,
			DatePattern:  j.DatePattern,
			DateFormat:   j.DateFormat,
			Country:      j.Country,
			Subdivision:  calendar.SubdivisionOf(j.Subdivision),
			Range:        rng,
			Mask:         mask,
			Frequency:    frequency,
			RollHolidays: j.RollHolidays,
		},
	}, nil
}

func (j JobConfig) frequency() (schedule.Frequency, error) {
	interval := j.Interval
	if interval == 0 {
		interval = 1
	}
	position, err := schedule.ParsePosition(j.Position)
	if err != nil {
		return schedule.Frequency{}, err
	}
	return schedule.ParseFrequency(orDefault(j.Frequency, DefaultFrequency), interval, position)
}

// ExpandEnvVars expands environment variables in paths
func (c *Config) ExpandEnvVars() {
	c.Calendar.APIURL = os.ExpandEnv(c.Calendar.APIURL)
	c.Calendar.FallbackFile = os.ExpandEnv(c.Calendar.FallbackFile)
	c.Daemon.StateFile = os.ExpandEnv(c.Daemon.StateFile)
	for i := range c.Jobs {
		c.Jobs[i].Path = os.ExpandEnv(c.Jobs[i].Path)
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
