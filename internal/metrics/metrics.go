// Package metrics holds the Prometheus collectors for booking activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "swiftseat"

var (
	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings committed to the store",
	})

	seatsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seats_booked_total",
		Help:      "Seats sold across all committed bookings",
	})

	bookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_rejected_total",
		Help:      "Booking attempts rejected by validation, by field error code",
	}, []string{"reason"})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_event_publish_failures_total",
		Help:      "Booking events that could not be handed to the broker",
	})
)

// TrackBookingCreated records a committed booking of n seats.
func TrackBookingCreated(seats int) {
	bookingsCreated.Inc()
	seatsBooked.Add(float64(seats))
}

// TrackBookingRejected records one rejection per field error code.
func TrackBookingRejected(reasons ...string) {
	for _, r := range reasons {
		bookingsRejected.WithLabelValues(r).Inc()
	}
}

// TrackPublishFailure records a booking event the broker did not accept.
func TrackPublishFailure() {
	eventPublishFailures.Inc()
}
