package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/ledger"
	"github.com/swiftseat/coach-booking/internal/logger"
)

// PublicHandler serves the passenger booking form.
type PublicHandler struct {
	Ledger Ledger
	Cache  Purger
	Log    logger.Logger
}

func NewPublicHandler(l Ledger, cache Purger, log logger.Logger) *PublicHandler {
	if l == nil {
		panic("nil ledger passed to NewPublicHandler")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PublicHandler{Ledger: l, Cache: cache, Log: log}
}

// ListRoutes handles GET /v1/routes.  Routes that already departed are
// omitted; sold-out routes are listed as disabled options.
func (h *PublicHandler) ListRoutes(c echo.Context) error {
	ctx := c.Request().Context()
	now := h.Ledger.Now()
	items, err := h.Ledger.ListAvailableRoutes(ctx, now)
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	// The listing goes stale once its earliest route departs.
	if len(items) > 0 {
		secs := int64(items[0].Route.DepartureTime.Sub(now) / time.Second)
		c.Response().Header().Set("Cache-Control", "max-age="+strconv.FormatInt(secs, 10))
	}
	return c.JSON(http.StatusOK, BookingFormView{Routes: routeOptions(items)})
}

// CreateBooking handles POST /v1/bookings with either a JSON or a form
// body.  Non-numeric route or seat values read as 0.  A rejected submission is answered with the form view so the
// client can redisplay the errors next to the entered values.
func (h *PublicHandler) CreateBooking(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in := req.input()
	ctx := c.Request().Context()

	b, err := h.Ledger.CreateBooking(ctx, in)
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		items, lerr := h.Ledger.ListAvailableRoutes(ctx, h.Ledger.Now())
		if lerr != nil {
			return respondLedgerError(c, h.Log, lerr)
		}
		return c.JSON(http.StatusUnprocessableEntity, BookingFormView{
			Routes: routeOptions(items),
			Errors: verr.Fields,
			Old: &BookingInputView{
				RouteID:        in.RouteID,
				PassengerName:  in.PassengerName,
				PassengerEmail: in.PassengerEmail,
				Seats:          in.Seats,
			},
		})
	}
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}

	purge(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusCreated, BookingConfirmationView{
		Success: true,
		Message: "Booking confirmed",
		Booking: *b,
	})
}
