// Package ledger owns seat-inventory accounting for coach routes: it
// enumerates bookable routes, derives remaining seats and validates and
// records bookings.  HTTP handlers hand it already-extracted primitive
// values and render whatever it returns.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swiftseat/coach-booking/internal/logger"
	"github.com/swiftseat/coach-booking/internal/metrics"
	"github.com/swiftseat/coach-booking/internal/model"
	"github.com/swiftseat/coach-booking/internal/queue"
	"github.com/swiftseat/coach-booking/internal/repository"
)

// Publisher hands committed bookings to downstream consumers.
type Publisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// Options configures a Ledger.  Zero values fall back to a no-op logger,
// no publisher, UTC and time.Now.
type Options struct {
	Logger    logger.Logger
	Publisher Publisher
	// Location is the zone operators enter departure times in.
	Location *time.Location
	Now      func() time.Time
	// NewReference generates booking references; defaults to UUIDv4.
	NewReference func() string
}

// Ledger is constructed once at start-up and shared by all handlers.
type Ledger struct {
	db        *sql.DB
	routes    *repository.RouteRepo
	bookings  *repository.BookingRepo
	log       logger.Logger
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
	newRef    func() string
}

// New builds a Ledger over db.
func New(db *sql.DB, opts Options) *Ledger {
	if db == nil {
		panic("nil database passed to ledger.New")
	}
	l := &Ledger{
		db:        db,
		routes:    repository.NewRouteRepo(db),
		bookings:  repository.NewBookingRepo(db),
		log:       opts.Logger,
		publisher: opts.Publisher,
		loc:       opts.Location,
		now:       opts.Now,
		newRef:    opts.NewReference,
	}
	if l.log == nil {
		l.log = logger.NewNop()
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.newRef == nil {
		l.newRef = func() string { return uuid.NewString() }
	}
	return l
}

// Location returns the operator time zone.
func (l *Ledger) Location() *time.Location { return l.loc }

// Now returns the ledger clock in UTC.
func (l *Ledger) Now() time.Time { return l.now().UTC() }

// ListAvailableRoutes returns routes departing at or after now, earliest
// first, with their remaining seats.  Sold-out routes are included with
// zero remaining.
func (l *Ledger) ListAvailableRoutes(ctx context.Context, now time.Time) ([]model.RouteAvailability, error) {
	rows, err := l.routes.ListDepartingFrom(ctx, now)
	if err != nil {
		return nil, persistence("list available routes", err)
	}
	out := make([]model.RouteAvailability, 0, len(rows))
	for _, r := range rows {
		if r.Route.DepartureTime.Before(now) {
			continue
		}
		out = append(out, model.RouteAvailability{
			Route:          r.Route,
			SeatsRemaining: Remaining(r.Route.TotalSeats, r.SeatsBooked),
		})
	}
	sortByDeparture(out)
	return out, nil
}

// ListRoutes returns every route, past ones included, for operators.
func (l *Ledger) ListRoutes(ctx context.Context) ([]model.RouteAvailability, error) {
	rows, err := l.routes.ListAll(ctx)
	if err != nil {
		return nil, persistence("list routes", err)
	}
	out := make([]model.RouteAvailability, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.RouteAvailability{
			Route:          r.Route,
			SeatsRemaining: Remaining(r.Route.TotalSeats, r.SeatsBooked),
		})
	}
	sortByDeparture(out)
	return out, nil
}

func sortByDeparture(items []model.RouteAvailability) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Route.DepartureTime.Before(items[j].Route.DepartureTime)
	})
}

// SeatsRemaining returns the seats still bookable on a route.  It fails
// with ErrRouteNotFound when the route does not exist.
func (l *Ledger) SeatsRemaining(ctx context.Context, routeID uint64) (int, error) {
	total, booked, err := l.routes.SeatCounts(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return 0, ErrRouteNotFound
		}
		return 0, persistence("seats remaining", err)
	}
	return Remaining(total, booked), nil
}

// BookingInput is a public booking submission.
type BookingInput struct {
	RouteID        uint64
	PassengerName  string
	PassengerEmail string
	Seats          int
}

// CreateBooking validates a submission and records it.  All field errors
// are collected into a single *ValidationError.  The route and seat
// checks run only when RouteID resolves to a route; the seat check also
// needs at least one seat requested.
//
// The route row is locked for the duration of the check-and-insert, so
// two concurrent requests cannot both claim the last seats.
func (l *Ledger) CreateBooking(ctx context.Context, in BookingInput) (*model.Booking, error) {
	name := strings.TrimSpace(in.PassengerName)
	email := strings.TrimSpace(in.PassengerEmail)

	fields := &ValidationError{}
	switch {
	case name == "":
		fields.add("passenger_name", CodeNameRequired, "name required")
	case tooLong(name):
		fields.add("passenger_name", CodeNameTooLong, "name too long")
	}
	switch {
	case tooLong(email):
		fields.add("passenger_email", CodeEmailTooLong, "email too long")
	case !ValidEmail(email):
		fields.add("passenger_email", CodeInvalidEmail, "invalid email")
	}
	if in.Seats < 1 {
		fields.add("seats", CodeSeatsRequired, "seats required")
	}

	if in.RouteID == 0 {
		return nil, l.reject(in, routeUnavailable(fields))
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence("begin booking", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	route, err := l.routes.GetByIDForUpdateTx(ctx, tx, in.RouteID)
	if errors.Is(err, repository.ErrRouteNotFound) {
		return nil, l.reject(in, routeUnavailable(fields))
	}
	if err != nil {
		return nil, persistence("lock route", err)
	}

	booked, err := l.bookings.SumSeatsTx(ctx, tx, route.ID)
	if err != nil {
		return nil, persistence("sum booked seats", err)
	}
	remaining := Remaining(route.TotalSeats, booked)
	if in.Seats >= 1 && in.Seats > remaining {
		fields.Fields = append(fields.Fields, insufficientSeats(remaining))
	}
	if !fields.empty() {
		return nil, l.reject(in, fields)
	}

	b := &model.Booking{
		Reference:      l.newRef(),
		RouteID:        route.ID,
		PassengerName:  name,
		PassengerEmail: email,
		Seats:          in.Seats,
		CreatedAt:      l.Now().Truncate(time.Second),
	}
	if err := l.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, persistence("insert booking", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistence("commit booking", err)
	}
	committed = true

	metrics.TrackBookingCreated(b.Seats)
	l.log.Info("booking created",
		"booking_id", b.ID, "reference", b.Reference, "route_id", b.RouteID,
		"seats", b.Seats, "seats_remaining", remaining-b.Seats)
	l.publish(ctx, route, b)
	return b, nil
}

// routeUnavailable puts the route error ahead of the other field errors.
func routeUnavailable(fields *ValidationError) *ValidationError {
	out := &ValidationError{Fields: make([]FieldError, 0, len(fields.Fields)+1)}
	out.add("route_id", CodeRouteUnavailable, "route unavailable")
	out.Fields = append(out.Fields, fields.Fields...)
	return out
}

func (l *Ledger) reject(in BookingInput, verr *ValidationError) error {
	metrics.TrackBookingRejected(verr.Codes()...)
	l.log.Debug("booking rejected", "route_id", in.RouteID, "codes", verr.Codes())
	return verr
}

func (l *Ledger) publish(ctx context.Context, route *model.Route, b *model.Booking) {
	if l.publisher == nil {
		return
	}
	ev := queue.BookingCreatedEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		RouteID:        route.ID,
		RouteTitle:     route.Title,
		Origin:         route.Origin,
		Destination:    route.Destination,
		DepartureTime:  route.DepartureTime.UTC().Format(time.RFC3339),
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		Seats:          b.Seats,
		TotalPrice:     route.Price.Mul(decimal.NewFromInt(int64(b.Seats))).StringFixed(2),
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := l.publisher.PublishBookingCreated(ctx, ev); err != nil {
		metrics.TrackPublishFailure()
		l.log.Warn("booking event not published", "booking_id", b.ID, "reference", b.Reference, "error", err)
	}
}

// ListBookings returns all bookings with their route titles, newest first.
func (l *Ledger) ListBookings(ctx context.Context) ([]model.BookingWithRoute, error) {
	items, err := l.bookings.ListWithRoute(ctx)
	if err != nil {
		return nil, persistence("list bookings", err)
	}
	return items, nil
}

// CreateRoute validates operator input and inserts a route.
func (l *Ledger) CreateRoute(ctx context.Context, f RouteFields) (*model.Route, error) {
	rt, verr := routeFromFields(f, l.loc)
	if verr != nil {
		return nil, verr
	}
	rt.CreatedAt = l.Now().Truncate(time.Second)
	if err := l.routes.Create(ctx, &rt); err != nil {
		return nil, persistence("insert route", err)
	}
	l.log.Info("route created", "route_id", rt.ID, "title", rt.Title, "departure", rt.DepartureTime)
	return &rt, nil
}

// UpdateRoute re-validates and overwrites a route.  Capacity may be set
// below the seats already booked; remaining seats then read as zero and
// existing bookings are kept.  The route row is locked between the
// existence check and the write.
func (l *Ledger) UpdateRoute(ctx context.Context, id uint64, f RouteFields) (*model.Route, error) {
	rt, verr := routeFromFields(f, l.loc)
	if verr != nil {
		return nil, verr
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence("begin update route", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, err := l.routes.GetByIDForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrRouteNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, persistence("lock route", err)
	}
	rt.ID = existing.ID
	rt.CreatedAt = existing.CreatedAt
	if err := l.routes.UpdateTx(ctx, tx, &rt); err != nil {
		return nil, persistence("update route", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistence("commit update route", err)
	}
	committed = true
	if rt.TotalSeats < existing.TotalSeats {
		l.log.Info("route capacity reduced", "route_id", id, "from", existing.TotalSeats, "to", rt.TotalSeats)
	}
	return &rt, nil
}

// DeleteRoute removes a route and all of its bookings in one transaction.
func (l *Ledger) DeleteRoute(ctx context.Context, id uint64) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin delete route", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	removed, err := l.bookings.DeleteByRouteTx(ctx, tx, id)
	if err != nil {
		return persistence("delete route bookings", err)
	}
	n, err := l.routes.DeleteTx(ctx, tx, id)
	if err != nil {
		return persistence("delete route", err)
	}
	if n == 0 {
		return ErrRouteNotFound
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit delete route", err)
	}
	committed = true
	l.log.Info("route deleted", "route_id", id, "bookings_removed", removed)
	return nil
}
