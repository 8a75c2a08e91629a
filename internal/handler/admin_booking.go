package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/model"
)

// ListBookings handles GET /v1/admin/bookings, newest first.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	items, err := h.Ledger.ListBookings(c.Request().Context())
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	loc := h.Ledger.Location()
	return c.JSON(http.StatusOK, AdminBookingsView{
		Timezone: loc.String(),
		Bookings: adminBookingRows(items, loc),
	})
}

func availabilityOf(rt *model.Route, remaining int) model.RouteAvailability {
	return model.RouteAvailability{Route: *rt, SeatsRemaining: remaining}
}
