package calendar

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// FileLookup implements HolidayLookup from a local text file
type FileLookup struct {
	fs       afero.Fs
	filePath string
	logger   *zap.Logger

	mu     sync.RWMutex
	loaded bool
	data   map[string]map[string][]time.Time // country -> subdivision ("" = national) -> dates
}

// NewFileLookup creates a new FileLookup reading filePath from fs
func NewFileLookup(fs afero.Fs, filePath string, logger *zap.Logger) *FileLookup {
	return &FileLookup{
		fs:       fs,
		filePath: filePath,
		logger:   logger,
		data:     make(map[string]map[string][]time.Time),
	}
}

// Load loads holiday data from file
func (fl *FileLookup) Load() error {
	file, err := fl.fs.Open(fl.filePath)
	if err != nil {
		return fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer file.Close()

	data := make(map[string]map[string][]time.Time)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	count := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD COUNTRY[-SUBDIVISION] [name]
		// Example: 2022-07-14 FR Fête nationale
		parts := strings.Fields(line)
		if len(parts) < 2 {
			fl.logger.Warn("Invalid line format",
				zap.Int("line", lineNo),
				zap.String("text", line))
			continue
		}

		date, err := time.Parse(dateutil.ISODate, parts[0])
		if err != nil {
			fl.logger.Warn("Failed to parse date",
				zap.Int("line", lineNo),
				zap.String("date", parts[0]),
				zap.Error(err))
			continue
		}

		country, subdivision, _ := strings.Cut(parts[1], "-")
		country = NormalizeCountry(country)
		subdivision = strings.ToUpper(subdivision)

		regions, ok := data[country]
		if !ok {
			regions = make(map[string][]time.Time)
			data[country] = regions
		}
		regions[subdivision] = append(regions[subdivision], date)
		count++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading holiday file: %w", err)
	}

	fl.mu.Lock()
	fl.data = data
	fl.loaded = true
	fl.mu.Unlock()

	fl.logger.Info("Holiday file loaded",
		zap.String("file", fl.filePath),
		zap.Int("countries", len(data)),
		zap.Int("holidays", count))

	return nil
}

// HolidaysFor returns national entries plus the entries of the subdivision, if any
func (fl *FileLookup) HolidaysFor(_ context.Context, country string, subdivision mo.Option[string], years []int) (dateutil.DateSet, error) {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	if !fl.loaded {
		return nil, fmt.Errorf("holiday file %s is not loaded", fl.filePath)
	}

	country = NormalizeCountry(country)
	regions, ok := fl.data[country]
	if !ok {
		return nil, validation.New(validation.UnknownCountry,
			"country %q is not listed in %s", country, fl.filePath)
	}

	dates := append([]time.Time{}, regions[""]...)
	if code, ok := NormalizeSubdivision(subdivision).Get(); ok {
		regional, found := regions[code]
		if !found {
			return nil, validation.New(validation.UnknownSubdivision,
				"subdivision %q of %s is not listed in %s", code, country, fl.filePath)
		}
		dates = append(dates, regional...)
	}

	set := dateutil.NewDateSet()
	for _, date := range dates {
		if containsYear(years, date.Year()) {
			set.Add(date)
		}
	}
	return set, nil
}
