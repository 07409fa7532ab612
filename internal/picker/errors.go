package picker

import (
	"errors"
	"fmt"

	"github.com/jonathan/partpicker/internal/types"
)

var (
	// ErrUnsupportedConstraint matches every *ConfigurationError.
	ErrUnsupportedConstraint = errors.New("unsupported constraint")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("no matching part")
)

// ConfigurationError reports a spec the family cannot search for. It is raised while
// building the search plan, before the catalog is touched.
type ConfigurationError struct {
	Family     types.Family
	Designator string
	Field      string
	Message    string
	Cause      error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Family, e.Field, e.Message)
	if e.Designator != "" {
		msg = e.Designator + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports ErrUnsupportedConstraint as a match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrUnsupportedConstraint
}

// NotFoundError reports that the candidate set became empty. Stage names where:
// the category lookup, the catalog query, an attribute stage, or ranking.
type NotFoundError struct {
	Family     types.Family
	Designator string
	Stage      string
	Predicate  string
	Quantity   int
	Trace      Trace
	Cause      error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no %s found at stage %q (quantity %d)", e.Family, e.Stage, e.Quantity)
	if e.Designator != "" {
		msg = e.Designator + ": " + msg
	}
	if e.Predicate != "" {
		msg += " for " + e.Predicate
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// Is reports ErrNotFound as a match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
