package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vestalisvirginis/filehole/internal/calendar"
	"github.com/vestalisvirginis/filehole/internal/config"
)

var (
	configPath string
	logger     *zap.Logger
	outWriter  io.Writer = os.Stdout
)

// errGapsFound makes the process exit with status 2 under --fail-on-gaps
var errGapsFound = errors.New("missing deliveries found")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errGapsFound) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "filehole",
		Short:         "Delivery gap detector",
		Long:          "Find the dates on which a scheduled file delivery never arrived, taking weekdays, recurrence and public holidays into account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Daemon.LogFile != "" {
				logger, err = initFileLogger(cfg.Daemon.LogFile, cfg.Daemon.LogLevel)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(watchCmd())

	return rootCmd
}

// loadConfig loads the config file. When optional is set a missing file yields the
// defaults instead, so ad-hoc commands work without any config.
func loadConfig(optional bool) (*config.Config, error) {
	if _, err := os.Stat(configPath); optional && errors.Is(err, os.ErrNotExist) {
		logger.Debug("Config file not found, using defaults", zap.String("path", configPath))
		return &config.Config{}, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ExpandEnvVars()
	return cfg, nil
}

// buildHolidayLookup wires the configured holiday source. The builtin tables back up the
// HTTP source unless a fallback file is configured.
func buildHolidayLookup(cfg *config.Config) (calendar.HolidayLookup, error) {
	registry := calendar.NewRegistry(logger)

	var fallback *calendar.FileLookup
	if cfg.Calendar.FallbackFile != "" {
		fallback = calendar.NewFileLookup(afero.NewOsFs(), cfg.Calendar.FallbackFile, logger)
	}

	switch cfg.Calendar.GetSource() {
	case config.SourceBuiltin:
		logger.Debug("Using builtin holiday tables", zap.Strings("countries", registry.Countries()))
		if fallback == nil {
			return registry, nil
		}
		return withFallback(registry, fallback), nil

	case config.SourceNager:
		logger.Info("Using Nager.Date holiday API", zap.String("api_url", cfg.Calendar.APIURL))
		primary := calendar.NewNagerLookup(cfg.Calendar.APIURL, cfg.Calendar.GetCacheTTL(), logger)
		if fallback == nil {
			return calendar.NewCompositeLookup(primary, registry, logger), nil
		}
		return withFallback(primary, fallback), nil

	case config.SourceFile:
		if fallback == nil {
			return nil, fmt.Errorf("calendar.fallback_file is required for file source")
		}
		if err := fallback.Load(); err != nil {
			return nil, fmt.Errorf("failed to load holiday file: %w", err)
		}
		return fallback, nil
	}

	return nil, fmt.Errorf("unknown calendar source: %s", cfg.Calendar.Source)
}

func withFallback(primary calendar.HolidayLookup, fallback *calendar.FileLookup) calendar.HolidayLookup {
	composite := calendar.NewCompositeLookup(primary, fallback, logger)
	if err := composite.LoadFallback(); err != nil {
		logger.Warn("Failed to load fallback calendar, continuing with primary only",
			zap.Error(err))
	}
	return composite
}

// openTee mirrors command output to path as well as stdout. The returned func restores stdout.
func openTee(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tee path: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tee-output file: %w", err)
	}
	outWriter = io.MultiWriter(os.Stdout, f)
	return func() {
		outWriter = os.Stdout
		f.Close()
	}, nil
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
