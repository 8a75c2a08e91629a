package handler

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/swiftseat/coach-booking/internal/ledger"
)

// looseInt is a numeric request field that never fails binding.  Input
// that does not read as an integer becomes 0, so the ledger reports it as
// a field error alongside every other one.
type looseInt int

func parseLooseInt(s string) looseInt {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return looseInt(n)
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query input.
func (n *looseInt) UnmarshalParam(s string) error {
	*n = parseLooseInt(s)
	return nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (n *looseInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32 {
			*n = 0
		} else {
			*n = looseInt(x)
		}
	case string:
		*n = parseLooseInt(x)
	default:
		*n = 0
	}
	return nil
}

// bookingRequest is the public booking form.
type bookingRequest struct {
	RouteID        looseInt `json:"route_id" form:"route_id"`
	PassengerName  string   `json:"passenger_name" form:"passenger_name"`
	PassengerEmail string   `json:"passenger_email" form:"passenger_email"`
	Seats          looseInt `json:"seats" form:"seats"`
}

func (r bookingRequest) input() ledger.BookingInput {
	var routeID uint64
	if r.RouteID > 0 {
		routeID = uint64(r.RouteID)
	}
	return ledger.BookingInput{
		RouteID:        routeID,
		PassengerName:  r.PassengerName,
		PassengerEmail: r.PassengerEmail,
		Seats:          int(r.Seats),
	}
}

// routeRequest is the operator create and edit form.
type routeRequest struct {
	Title       string   `json:"title" form:"title"`
	Origin      string   `json:"origin" form:"origin"`
	Destination string   `json:"destination" form:"destination"`
	Departure   string   `json:"departure_time" form:"departure_time"`
	TotalSeats  looseInt `json:"total_seats" form:"total_seats"`
	Price       string   `json:"price" form:"price"`
}

func (r routeRequest) fields() ledger.RouteFields {
	return ledger.RouteFields{
		Title:       r.Title,
		Origin:      r.Origin,
		Destination: r.Destination,
		Departure:   r.Departure,
		TotalSeats:  int(r.TotalSeats),
		Price:       r.Price,
	}
}
