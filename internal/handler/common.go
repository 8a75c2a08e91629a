// Package handler holds the echo handlers for the public booking form,
// operator administration and operator login.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/ledger"
	"github.com/swiftseat/coach-booking/internal/logger"
	"github.com/swiftseat/coach-booking/internal/middleware"
	"github.com/swiftseat/coach-booking/internal/model"
)

// Ledger is the subset of *ledger.Ledger the handlers call.
type Ledger interface {
	Location() *time.Location
	Now() time.Time
	ListAvailableRoutes(ctx context.Context, now time.Time) ([]model.RouteAvailability, error)
	ListRoutes(ctx context.Context) ([]model.RouteAvailability, error)
	SeatsRemaining(ctx context.Context, routeID uint64) (int, error)
	CreateBooking(ctx context.Context, in ledger.BookingInput) (*model.Booking, error)
	ListBookings(ctx context.Context) ([]model.BookingWithRoute, error)
	CreateRoute(ctx context.Context, f ledger.RouteFields) (*model.Route, error)
	UpdateRoute(ctx context.Context, id uint64, f ledger.RouteFields) (*model.Route, error)
	DeleteRoute(ctx context.Context, id uint64) error
}

// Purger drops cached public responses.  *middleware.CachePurger
// satisfies it.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// getUserID extracts the operator ID that JWTAuth placed in the context.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxOperatorID).(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// respondLedgerError maps ledger errors onto status codes.  Validation
// failures carry their field errors; storage faults are logged and hidden.
func respondLedgerError(c echo.Context, log logger.Logger, err error) error {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "errors": verr.Fields})
	case errors.Is(err, ledger.ErrRouteNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
	default:
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func purge(ctx context.Context, p Purger, log logger.Logger) {
	if p == nil {
		return
	}
	if _, err := p.Purge(ctx); err != nil {
		log.Warn("cache purge failed", "error", err)
	}
}
