package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by gateway errors for lookups that matched nothing.
var ErrNotFound = errors.New("not found in catalog")

// AttributeError reports a per-record attribute that is missing or malformed.
// It is expected for a large share of records and is never fatal to a resolution.
type AttributeError struct {
	PartID  string
	Key     string
	Message string
	Cause   error
}

func (e *AttributeError) Error() string {
	msg := e.PartID
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AttributeError) Unwrap() error {
	return e.Cause
}
