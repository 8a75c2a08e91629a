package handler

import (
	"fmt"
	"time"

	"github.com/swiftseat/coach-booking/internal/ledger"
	"github.com/swiftseat/coach-booking/internal/model"
)

// RouteOption is one selectable route on the booking form.
type RouteOption struct {
	ID             uint64    `json:"id"`
	Label          string    `json:"label"`
	Title          string    `json:"title"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	SeatsRemaining int       `json:"seats_remaining"`
	Price          string    `json:"price"`
	Disabled       bool      `json:"disabled"`
}

// BookingInputView echoes a submitted booking back to the form.
type BookingInputView struct {
	RouteID        uint64 `json:"route_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	Seats          int    `json:"seats"`
}

// BookingFormView is what the public booking form renders: the routes on
// offer and, after a rejected submission, the errors and previous input.
type BookingFormView struct {
	Routes  []RouteOption       `json:"routes"`
	Errors  []ledger.FieldError `json:"errors,omitempty"`
	Old     *BookingInputView   `json:"old,omitempty"`
	Success bool                `json:"success"`
}

// BookingConfirmationView is returned once a booking is stored.
type BookingConfirmationView struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Booking model.Booking `json:"booking"`
}

// AdminRouteRow is one line of the operator route table.  DepartureLocal
// is in the operator time zone, formatted as the edit form expects.
type AdminRouteRow struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	DepartureLocal string    `json:"departure_local"`
	TotalSeats     int       `json:"total_seats"`
	SeatsRemaining int       `json:"seats_remaining"`
	Price          string    `json:"price"`
	CreatedAt      time.Time `json:"created_at"`
}

type AdminRoutesView struct {
	Timezone string          `json:"timezone"`
	Routes   []AdminRouteRow `json:"routes"`
}

type AdminBookingRow struct {
	ID             uint64    `json:"id"`
	Reference      string    `json:"reference"`
	RouteID        uint64    `json:"route_id"`
	RouteTitle     string    `json:"route_title"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	Seats          int       `json:"seats"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedLocal   string    `json:"created_local"`
}

type AdminBookingsView struct {
	Timezone string            `json:"timezone"`
	Bookings []AdminBookingRow `json:"bookings"`
}

// routeLabel renders "HX101 — New York ➜ Washington (6 seats left)",
// with " · Ticket: 49.99" appended for priced routes.
func routeLabel(a model.RouteAvailability) string {
	r := a.Route
	label := fmt.Sprintf("%s — %s ➜ %s (%d seats left)", r.Title, r.Origin, r.Destination, a.SeatsRemaining)
	if r.Price.IsPositive() {
		label += " · Ticket: " + r.Price.StringFixed(2)
	}
	return label
}

func routeOptions(items []model.RouteAvailability) []RouteOption {
	out := make([]RouteOption, 0, len(items))
	for _, a := range items {
		out = append(out, RouteOption{
			ID:             a.Route.ID,
			Label:          routeLabel(a),
			Title:          a.Route.Title,
			Origin:         a.Route.Origin,
			Destination:    a.Route.Destination,
			DepartureTime:  a.Route.DepartureTime,
			SeatsRemaining: a.SeatsRemaining,
			Price:          a.Route.Price.StringFixed(2),
			Disabled:       a.SeatsRemaining <= 0,
		})
	}
	return out
}

func adminRouteRow(a model.RouteAvailability, loc *time.Location) AdminRouteRow {
	r := a.Route
	return AdminRouteRow{
		ID:             r.ID,
		Title:          r.Title,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		DepartureLocal: r.DepartureTime.In(loc).Format(ledger.DepartureLayout),
		TotalSeats:     r.TotalSeats,
		SeatsRemaining: a.SeatsRemaining,
		Price:          r.Price.StringFixed(2),
		CreatedAt:      r.CreatedAt,
	}
}

func adminBookingRows(items []model.BookingWithRoute, loc *time.Location) []AdminBookingRow {
	out := make([]AdminBookingRow, 0, len(items))
	for _, b := range items {
		out = append(out, AdminBookingRow{
			ID:             b.ID,
			Reference:      b.Reference,
			RouteID:        b.RouteID,
			RouteTitle:     b.RouteTitle,
			PassengerName:  b.PassengerName,
			PassengerEmail: b.PassengerEmail,
			Seats:          b.Seats,
			CreatedAt:      b.CreatedAt,
			CreatedLocal:   b.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		})
	}
	return out
}
