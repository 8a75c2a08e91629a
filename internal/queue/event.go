// Package queue defines the booking event payload and the RabbitMQ
// publisher and consumer that carry it.
package queue

// BookingCreatedQueue is the durable queue booking events are published to.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published after a booking commits.  It carries
// enough for downstream consumers (confirmation mail, audit log) to act
// without querying the primary database.
type BookingCreatedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	Reference      string `json:"reference"`
	RouteID        uint64 `json:"route_id"`
	RouteTitle     string `json:"route_title"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	DepartureTime  string `json:"departure_time"` // RFC3339, UTC
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	Seats          int    `json:"seats"`
	TotalPrice     string `json:"total_price"` // fixed two decimals
	CreatedAt      string `json:"created_at"`  // RFC3339, UTC
}
