package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

const (
	nagerBaseURL       = "https://date.nager.at"
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// NagerLookup implements HolidayLookup using the date.nager.at public holiday API.
// Regional holidays are tagged with "CC-SUB" county codes and kept only for that subdivision.
type NagerLookup struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[string]*cachedYear // key: "CC-YYYY"
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
}

type cachedYear struct {
	holidays  []nagerHoliday
	fetchedAt time.Time
}

// nagerHoliday represents one entry of GET /api/v3/PublicHolidays/{year}/{country}
type nagerHoliday struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"` // "DE-BW", nil when Global
	Types       []string `json:"types"`
}

// NewNagerLookup creates a new NagerLookup. An empty baseURL uses the public API.
func NewNagerLookup(baseURL string, cacheTTL time.Duration, logger *zap.Logger) *NagerLookup {
	if baseURL == "" {
		baseURL = nagerBaseURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &NagerLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:   logger,
		cache:    make(map[string]*cachedYear),
		cacheTTL: cacheTTL,
	}
}

// HolidaysFor fetches each year (cached) and keeps national holidays plus, when a
// subdivision is given, the ones listed for "COUNTRY-SUBDIVISION"
func (n *NagerLookup) HolidaysFor(ctx context.Context, country string, subdivision mo.Option[string], years []int) (dateutil.DateSet, error) {
	country = NormalizeCountry(country)
	county := ""
	if code, ok := NormalizeSubdivision(subdivision).Get(); ok {
		county = country + "-" + code
	}

	set := dateutil.NewDateSet()
	for _, year := range years {
		holidays, err := n.year(ctx, country, year)
		if err != nil {
			return nil, err
		}

		for _, h := range holidays {
			if !h.Global && (county == "" || !containsCounty(h.Counties, county)) {
				continue
			}
			date, err := time.Parse(dateutil.ISODate, h.Date)
			if err != nil {
				n.logger.Warn("Failed to parse holiday date",
					zap.String("date", h.Date),
					zap.String("name", h.Name),
					zap.Error(err))
				continue
			}
			set.Add(date)
		}
	}

	return set, nil
}

func (n *NagerLookup) year(ctx context.Context, country string, year int) ([]nagerHoliday, error) {
	cacheKey := fmt.Sprintf("%s-%d", country, year)

	n.cacheMu.RLock()
	if cached, ok := n.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < n.cacheTTL {
			n.cacheMu.RUnlock()
			n.logger.Debug("Using cached holidays",
				zap.String("country", country),
				zap.Int("year", year))
			return cached.holidays, nil
		}
	}
	n.cacheMu.RUnlock()

	holidays, err := n.fetchYear(ctx, country, year)
	if err != nil {
		return nil, err
	}

	n.cacheMu.Lock()
	n.cache[cacheKey] = &cachedYear{
		holidays:  holidays,
		fetchedAt: time.Now(),
	}
	n.cacheMu.Unlock()

	return holidays, nil
}

// fetchYear fetches one year of public holidays
func (n *NagerLookup) fetchYear(ctx context.Context, country string, year int) ([]nagerHoliday, error) {
	// Build URL: https://date.nager.at/api/v3/PublicHolidays/2022/FR
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", n.baseURL, year, country)

	n.logger.Debug("Fetching holidays from nager.date",
		zap.String("url", url),
		zap.String("country", country),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, validation.New(validation.UnknownCountry, "nager.date does not know country %q", country)
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}

	var holidays []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, fmt.Errorf("failed to parse holiday response: %w", err)
	}

	n.logger.Info("Holidays fetched from API",
		zap.String("country", country),
		zap.Int("year", year),
		zap.Int("count", len(holidays)))

	return holidays, nil
}

// ClearCache clears the cache
func (n *NagerLookup) ClearCache() {
	n.cacheMu.Lock()
	defer n.cacheMu.Unlock()

	n.cache = make(map[string]*cachedYear)
	n.logger.Info("Holiday cache cleared")
}

func containsCounty(counties []string, county string) bool {
	for _, c := range counties {
		if strings.EqualFold(c, county) {
			return true
		}
	}
	return false
}
