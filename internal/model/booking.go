package model

import "time"

// Booking is a passenger's reservation of one or more seats on a route.
// Bookings are never updated; they disappear only when their route is
// deleted.
type Booking struct {
	ID             uint64    `json:"id"`
	Reference      string    `json:"reference"` // public UUID confirmation reference
	RouteID        uint64    `json:"route_id"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	Seats          int       `json:"seats"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// BookingWithRoute is a booking joined with the title of its route, as
// listed on the operator bookings page.
type BookingWithRoute struct {
	Booking
	RouteTitle string `json:"route_title"`
}
