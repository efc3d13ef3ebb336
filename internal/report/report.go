// Package report renders audit results for people (text) and machines (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Format is an output encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json and yaml (or yml)
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format '%s', expected text, json or yaml", raw)
}

// Summary is the serialisable view of an audit.Result
type Summary struct {
	RunID      string   `json:"run_id" yaml:"run_id"`
	Job        string   `json:"job,omitempty" yaml:"job,omitempty"`
	Start      string   `json:"start" yaml:"start"`
	End        string   `json:"end" yaml:"end"`
	Boundary   string   `json:"boundary" yaml:"boundary"`
	Frequency  string   `json:"frequency" yaml:"frequency"`
	Expected   int      `json:"expected" yaml:"expected"`
	Observed   int      `json:"observed" yaml:"observed"`
	Holidays   []string `json:"holidays" yaml:"holidays"`
	Missing    []string `json:"missing" yaml:"missing"`
	Unexpected []string `json:"unexpected,omitempty" yaml:"unexpected,omitempty"`
	Unmatched  []string `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
}

// NewSummary converts a result
func NewSummary(r *audit.Result) Summary {
	return Summary{
		RunID:      r.RunID,
		Job:        r.Job,
		Start:      r.Range.Start.Format(dateutil.ISODate),
		End:        r.Range.End.Format(dateutil.ISODate),
		Boundary:   r.Range.Boundary.String(),
		Frequency:  r.Frequency.String(),
		Expected:   len(r.Expected),
		Observed:   len(r.Observed),
		Holidays:   dateutil.FormatDates(r.Holidays),
		Missing:    dateutil.FormatDates(r.Missing),
		Unexpected: dateutil.FormatDates(r.Unexpected),
		Unmatched:  r.Unmatched,
		DurationMS: r.Duration.Milliseconds(),
	}
}

// WriteResults renders results in format. JSON and YAML always emit a list.
func WriteResults(w io.Writer, format Format, results []*audit.Result) error {
	summaries := make([]Summary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, NewSummary(r))
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, summaries)
	case FormatYAML:
		return writeYAML(w, summaries)
	}

	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeSummaryText(w, s)
	}
	return nil
}

func writeSummaryText(w io.Writer, s Summary) {
	title := s.Job
	if title == "" {
		title = "ad-hoc"
	}
	fmt.Fprintf(w, "📋 Delivery audit %s (%s to %s, %s)\n", title, s.Start, s.End, s.Frequency)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Expected:   %d\n", s.Expected)
	fmt.Fprintf(w, "  Observed:   %d\n", s.Observed)
	fmt.Fprintf(w, "  Holidays:   %d\n", len(s.Holidays))
	fmt.Fprintf(w, "  Missing:    %d\n", len(s.Missing))

	if len(s.Missing) > 0 {
		fmt.Fprintln(w, "\n  Missing deliveries:")
		for _, day := range s.Missing {
			fmt.Fprintf(w, "    ❌ %s\n", day)
		}
	} else {
		fmt.Fprintln(w, "\n  ✅ No gaps")
	}

	if len(s.Unexpected) > 0 {
		fmt.Fprintf(w, "\n  Off-schedule deliveries: %s\n", strings.Join(s.Unexpected, ", "))
	}
	if len(s.Unmatched) > 0 {
		fmt.Fprintf(w, "\n  Files without a date (%d):\n", len(s.Unmatched))
		for _, file := range s.Unmatched {
			fmt.Fprintf(w, "    • %s\n", file)
		}
	}
	fmt.Fprintf(w, "\n  run %s in %dms\n", s.RunID, s.DurationMS)
}

// WriteDates renders a plain list of dates, one per line in text format
func WriteDates(w io.Writer, format Format, dates []time.Time) error {
	formatted := dateutil.FormatDates(dates)
	switch format {
	case FormatJSON:
		return writeJSON(w, formatted)
	case FormatYAML:
		return writeYAML(w, formatted)
	}
	for _, day := range formatted {
		fmt.Fprintf(w, "%s %s\n", day, dayName(day))
	}
	return nil
}

func dayName(iso string) string {
	day, err := time.Parse(dateutil.ISODate, iso)
	if err != nil {
		return ""
	}
	return day.Weekday().String()[:3]
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
