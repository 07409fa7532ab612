package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/picker"
	"go.uber.org/zap"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string       `json:"error"`
	Field string       `json:"field,omitempty"`
	Stage string       `json:"stage,omitempty"`
	Trace picker.Trace `json:"trace,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var ve *ErrValidation
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, picker.ErrUnsupportedConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, picker.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody carries the failing field or stage so that clients need not parse messages.
func errorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}

	var (
		ve *ErrValidation
		ce *picker.ConfigurationError
		nf *picker.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		body.Field = ve.Field
	case errors.As(err, &ce):
		body.Field = ce.Field
	case errors.As(err, &nf):
		body.Stage = nf.Stage
		body.Trace = nf.Trace
	}
	return body
}

// validationError turns the first validator failure into an ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed '%s' validation", fe.Tag()),
		}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}

// writeError logs server-side failures and writes the mapped status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.jsonResponse(w, status, errorBody(err))
}
