package repository

import (
	"context"
	"database/sql"

	"github.com/swiftseat/coach-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Bookings are inserted
// only inside a transaction that holds the route's row lock.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// SumSeatsTx returns the seats already booked on a route.
func (r *BookingRepo) SumSeatsTx(ctx context.Context, tx *sql.Tx, routeID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(seats), 0) FROM bookings WHERE route_id = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, routeID).Scan(&n)
	return n, err
}

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated ID.  The caller must commit or roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (reference, route_id, passenger_name, passenger_email, seats, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.Reference, b.RouteID, b.PassengerName, b.PassengerEmail, b.Seats, b.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// DeleteByRouteTx removes every booking on a route and returns the count.
func (r *BookingRepo) DeleteByRouteTx(ctx context.Context, tx *sql.Tx, routeID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE route_id = ?`, routeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListWithRoute returns all bookings joined with their route title, newest
// first.
func (r *BookingRepo) ListWithRoute(ctx context.Context) ([]model.BookingWithRoute, error) {
	const q = `SELECT b.id, b.reference, b.route_id, b.passenger_name, b.passenger_email, b.seats, b.created_at, r.title
	           FROM bookings b
	           INNER JOIN routes r ON r.id = b.route_id
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingWithRoute{}
	for rows.Next() {
		var b model.BookingWithRoute
		if err := rows.Scan(&b.ID, &b.Reference, &b.RouteID, &b.PassengerName, &b.PassengerEmail,
			&b.Seats, &b.CreatedAt, &b.RouteTitle); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}
