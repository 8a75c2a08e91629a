package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Route represents a scheduled coach departure with a fixed seat
// capacity and ticket price.
//
// Fields:
//
//	ID            – primary key identifier.
//	Title         – operator-facing name, e.g. a service number.
//	Origin        – departure city or stop.
//	Destination   – arrival city or stop.
//	DepartureTime – departure instant, always UTC.
//	TotalSeats    – seat capacity (at least 1).
//	Price         – ticket price per seat (never negative).
//	CreatedAt     – creation timestamp.
type Route struct {
	ID            uint64          `json:"id"`
	Title         string          `json:"title"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureTime time.Time       `json:"departure_time"`
	TotalSeats    int             `json:"total_seats"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RouteAvailability pairs a route with its derived remaining seats.
type RouteAvailability struct {
	Route          Route `json:"route"`
	SeatsRemaining int   `json:"seats_remaining"`
}
