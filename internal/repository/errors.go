// Package repository holds the MySQL data access code for routes, bookings
// and operators.  Sentinel errors defined here let the ledger and handlers
// distinguish missing rows from storage faults.
package repository

import "errors"

// ErrRouteNotFound is returned when no route row matches the given ID.
var ErrRouteNotFound = errors.New("route not found")

// ErrOperatorNotFound is returned when no operator matches an email or ID.
var ErrOperatorNotFound = errors.New("operator not found")

// ErrEmailExists is returned when an operator email is already taken.
var ErrEmailExists = errors.New("email already exists")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
