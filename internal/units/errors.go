package units

import "fmt"

// ParseError reports a token that is not a prefixed number.
type ParseError struct {
	Token   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot parse %q: %s: %v", e.Token, e.Message, e.Cause)
	}
	return fmt.Sprintf("cannot parse %q: %s", e.Token, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
