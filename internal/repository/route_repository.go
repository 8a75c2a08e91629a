package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/swiftseat/coach-booking/internal/model"
)

const routeColumns = `r.id, r.title, r.origin, r.destination, r.departure_time, r.total_seats, r.price, r.created_at`

// bookedSubquery sums the seats of every booking on the outer route row.
const bookedSubquery = `COALESCE((SELECT SUM(b.seats) FROM bookings b WHERE b.route_id = r.id), 0)`

// RouteRepo manages persistence for routes.  All timestamps are read and
// written in UTC.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo returns a RouteRepo bound to the given database.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// RouteWithBooked is a route row together with the sum of seats booked on
// it.  Remaining seats are derived by the ledger.
type RouteWithBooked struct {
	Route       model.Route
	SeatsBooked int
}

func scanRoute(s rowScanner, rt *model.Route, extra ...any) error {
	dest := []any{
		&rt.ID, &rt.Title, &rt.Origin, &rt.Destination,
		&rt.DepartureTime, &rt.TotalSeats, &rt.Price, &rt.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	rt.DepartureTime = rt.DepartureTime.UTC()
	rt.CreatedAt = rt.CreatedAt.UTC()
	return nil
}

// Create inserts a route and populates its generated ID.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	const q = `INSERT INTO routes (title, origin, destination, departure_time, total_seats, price, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rt.Title, rt.Origin, rt.Destination, rt.DepartureTime.UTC(), rt.TotalSeats, rt.Price, rt.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// UpdateTx overwrites the editable columns of a route inside the caller's
// transaction.  MySQL reports zero affected rows when nothing changed, so
// callers confirm existence with GetByIDForUpdateTx first.
func (r *RouteRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rt *model.Route) error {
	const q = `UPDATE routes SET title = ?, origin = ?, destination = ?, departure_time = ?, total_seats = ?, price = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		rt.Title, rt.Origin, rt.Destination, rt.DepartureTime.UTC(), rt.TotalSeats, rt.Price, rt.ID)
	return err
}

// GetByIDForUpdateTx loads a route and takes an exclusive row lock on it
// for the rest of the transaction.  Concurrent bookings on the same route
// queue behind this lock, which keeps the seat count read by the caller
// valid until it commits.
func (r *RouteRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Route, error) {
	const q = `SELECT ` + routeColumns + ` FROM routes r WHERE r.id = ? FOR UPDATE`
	var rt model.Route
	if err := scanRoute(tx.QueryRowContext(ctx, q, id), &rt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// SeatCounts returns the capacity of a route and the seats booked on it in
// a single round trip.
func (r *RouteRepo) SeatCounts(ctx context.Context, id uint64) (total, booked int, err error) {
	const q = `SELECT r.total_seats, ` + bookedSubquery + ` FROM routes r WHERE r.id = ?`
	err = r.db.QueryRowContext(ctx, q, id).Scan(&total, &booked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrRouteNotFound
	}
	return total, booked, err
}

// ListDepartingFrom returns routes departing at or after from, earliest
// first, each with its booked seat total.
func (r *RouteRepo) ListDepartingFrom(ctx context.Context, from time.Time) ([]RouteWithBooked, error) {
	const q = `SELECT ` + routeColumns + `, ` + bookedSubquery + `
	           FROM routes r
	           WHERE r.departure_time >= ?
	           ORDER BY r.departure_time ASC, r.id ASC`
	return r.list(ctx, q, from.UTC())
}

// ListAll returns every route, earliest departure first.
func (r *RouteRepo) ListAll(ctx context.Context) ([]RouteWithBooked, error) {
	const q = `SELECT ` + routeColumns + `, ` + bookedSubquery + `
	           FROM routes r
	           ORDER BY r.departure_time ASC, r.id ASC`
	return r.list(ctx, q)
}

func (r *RouteRepo) list(ctx context.Context, q string, args ...any) ([]RouteWithBooked, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RouteWithBooked{}
	for rows.Next() {
		var item RouteWithBooked
		if err := scanRoute(rows, &item.Route, &item.SeatsBooked); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Count returns the number of routes.
func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM routes`).Scan(&n)
	return n, err
}

// DeleteTx removes a route inside the caller's transaction and reports
// how many rows were deleted.
func (r *RouteRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
