package audit

import (
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/vestalisvirginis/filehole/internal/validation"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// Extractor recovers a delivery date from a file identifier.
// The last match of the pattern is used; when the pattern has capture groups, the first
// group of that match is the date text. The text is parsed with a strftime format
// ("%Y%m%d") or, when the format has no '%', a Go layout ("20060102").
type Extractor struct {
	pattern *regexp.Regexp
	format  string
}

// NewExtractor compiles pattern and checks format is set
func NewExtractor(pattern, format string) (*Extractor, error) {
	if pattern == "" {
		return nil, validation.New(validation.InvalidPattern, "date pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, validation.Wrap(err, validation.InvalidPattern, "cannot compile date pattern %q", pattern)
	}
	if strings.TrimSpace(format) == "" {
		return nil, validation.New(validation.InvalidPattern, "date format is required")
	}
	return &Extractor{pattern: re, format: format}, nil
}

// Extract returns the date encoded in identifier. ok is false when the pattern does not match,
// which is not an error; a match that does not parse is a DateParseFailure.
func (e *Extractor) Extract(identifier string) (date time.Time, ok bool, err error) {
	matches := e.pattern.FindAllStringSubmatch(identifier, -1)
	if len(matches) == 0 {
		return time.Time{}, false, nil
	}

	last := matches[len(matches)-1]
	text := last[0]
	if len(last) > 1 {
		text = last[1]
	}

	date, err = e.parse(text)
	if err != nil {
		return time.Time{}, false, validation.Wrap(err, validation.DateParseFailure,
			"cannot parse %q from %q with format %q", text, identifier, e.format)
	}
	return dateutil.Truncate(date), true, nil
}

func (e *Extractor) parse(text string) (time.Time, error) {
	if strings.Contains(e.format, "%") {
		return strftime.Parse(e.format, text)
	}
	return time.Parse(e.format, text)
}
