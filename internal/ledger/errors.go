package ledger

import (
	"fmt"
	"strings"

	"github.com/swiftseat/coach-booking/internal/repository"
)

// ErrRouteNotFound is returned by SeatsRemaining, UpdateRoute and
// DeleteRoute when the route does not exist.  CreateBooking reports a
// missing route as a field error instead.
var ErrRouteNotFound = repository.ErrRouteNotFound

// Field error codes.  Codes are stable identifiers for clients and metric
// labels; messages are for display.
const (
	CodeRouteUnavailable  = "route_unavailable"
	CodeNameRequired      = "name_required"
	CodeInvalidEmail      = "invalid_email"
	CodeSeatsRequired     = "seats_required"
	CodeInsufficientSeats = "insufficient_seats"
	CodeNameTooLong       = "name_too_long"
	CodeEmailTooLong      = "email_too_long"

	CodeTitleRequired       = "title_required"
	CodeOriginRequired      = "origin_required"
	CodeDestinationRequired = "destination_required"
	CodeDepartureInvalid    = "departure_invalid"
	CodeTotalSeatsInvalid   = "total_seats_invalid"
	CodePriceInvalid        = "price_invalid"
	CodeTitleTooLong        = "title_too_long"
	CodeOriginTooLong       = "origin_too_long"
	CodeDestinationTooLong  = "destination_too_long"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Remaining is set on insufficient_seats errors.
	Remaining *int `json:"remaining,omitempty"`
}

// ValidationError carries every field error found in one request.  It is
// always recoverable: callers re-display the form with the errors.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, code, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: msg})
}

// Has reports whether a field error with the given code is present.
func (e *ValidationError) Has(code string) bool {
	for _, f := range e.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Codes lists the error codes in order.
func (e *ValidationError) Codes() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Code)
	}
	return out
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// PersistenceError wraps a storage failure.  It is fatal to the request
// and is not retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
