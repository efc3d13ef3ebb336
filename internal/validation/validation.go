// Package validation holds the error taxonomy for malformed audit input.
//
// Every error here is a caller configuration defect: it is raised at the point the bad value
// is parsed and propagated unchanged. Nothing retries on a validation error.
package validation

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure
type Kind int

const (
	InvalidWeekmask Kind = iota + 1
	WrongType
	InvalidFrequency
	UnknownCountry
	DateParseFailure
	InvalidDateRange
	InvalidPattern
	UnknownSubdivision
)

var kindNames = map[Kind]string{
	InvalidWeekmask:    "invalid_weekmask",
	WrongType:          "wrong_type",
	InvalidFrequency:   "invalid_frequency",
	UnknownCountry:     "unknown_country",
	DateParseFailure:   "date_parse_failure",
	InvalidDateRange:   "invalid_date_range",
	InvalidPattern:     "invalid_pattern",
	UnknownSubdivision: "unknown_subdivision",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a typed validation failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a validation error of the given kind
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a validation error of the given kind around cause
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first validation error in err's chain
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err's chain holds a validation error of the given kind
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
