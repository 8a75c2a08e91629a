package ledger

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/swiftseat/coach-booking/internal/model"
)

// DepartureLayout is the operator-facing departure format, as produced by
// an HTML datetime-local input.
const DepartureLayout = "2006-01-02T15:04"

// departureLayouts are tried in order when parsing operator input.
var departureLayouts = []string{DepartureLayout, "2006-01-02 15:04", "2006-01-02 15:04:05"}

// Column bounds of the routes and bookings tables.
const (
	MaxTextLength = 120
	MaxTotalSeats = 65535
)

// maxPrice is the largest DECIMAL(10,2) value.
var maxPrice = decimal.RequireFromString("99999999.99")

var validate = validator.New()

// tooLong reports whether s exceeds MaxTextLength characters.
func tooLong(s string) bool { return utf8.RuneCountInString(s) > MaxTextLength }

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// Remaining is the seats left on a route of the given capacity once
// booked seats are subtracted.  It never goes below zero.
func Remaining(totalSeats, booked int) int {
	if left := totalSeats - booked; left > 0 {
		return left
	}
	return 0
}

func insufficientSeats(remaining int) FieldError {
	r := remaining
	return FieldError{
		Field:     "seats",
		Code:      CodeInsufficientSeats,
		Message:   fmt.Sprintf("insufficient seats, %d remain", remaining),
		Remaining: &r,
	}
}

// RouteFields is operator input for creating or updating a route.
// Departure is local time in the operator's zone.
type RouteFields struct {
	Title       string
	Origin      string
	Destination string
	Departure   string
	TotalSeats  int
	Price       string
}

// parseDeparture interprets s in loc and returns the UTC instant.
func parseDeparture(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range departureLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parsePrice reads an optional non-negative amount.  An empty string is
// zero.  The returned message is empty when the price is usable.
func parsePrice(s string) (decimal.Decimal, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ""
	}
	p, err := decimal.NewFromString(s)
	if err != nil || p.IsNegative() {
		return decimal.Zero, "price must be a non-negative amount"
	}
	p = p.Round(2)
	if p.GreaterThan(maxPrice) {
		return decimal.Zero, "price out of range"
	}
	return p, ""
}

// requiredText checks a mandatory free-text field against the column
// width.
func requiredText(verr *ValidationError, field, value, missingCode, longCode string) {
	switch {
	case value == "":
		verr.add(field, missingCode, field+" required")
	case tooLong(value):
		verr.add(field, longCode, fmt.Sprintf("%s must be at most %d characters", field, MaxTextLength))
	}
}

// routeFromFields validates operator input and builds the route it
// describes.  Every problem is reported, not just the first.
func routeFromFields(f RouteFields, loc *time.Location) (model.Route, *ValidationError) {
	verr := &ValidationError{}
	rt := model.Route{
		Title:       strings.TrimSpace(f.Title),
		Origin:      strings.TrimSpace(f.Origin),
		Destination: strings.TrimSpace(f.Destination),
		TotalSeats:  f.TotalSeats,
	}
	requiredText(verr, "title", rt.Title, CodeTitleRequired, CodeTitleTooLong)
	requiredText(verr, "origin", rt.Origin, CodeOriginRequired, CodeOriginTooLong)
	requiredText(verr, "destination", rt.Destination, CodeDestinationRequired, CodeDestinationTooLong)
	if dep, ok := parseDeparture(f.Departure, loc); ok {
		rt.DepartureTime = dep
	} else {
		verr.add("departure_time", CodeDepartureInvalid, "departure must be formatted as YYYY-MM-DDTHH:MM")
	}
	switch {
	case rt.TotalSeats < 1:
		verr.add("total_seats", CodeTotalSeatsInvalid, "total seats must be at least 1")
	case rt.TotalSeats > MaxTotalSeats:
		verr.add("total_seats", CodeTotalSeatsInvalid, fmt.Sprintf("total seats must be at most %d", MaxTotalSeats))
	}
	if p, msg := parsePrice(f.Price); msg == "" {
		rt.Price = p
	} else {
		verr.add("price", CodePriceInvalid, msg)
	}
	if verr.empty() {
		return rt, nil
	}
	return rt, verr
}
