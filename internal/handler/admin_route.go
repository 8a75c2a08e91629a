package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/logger"
)

// AdminHandler serves the operator route and booking pages.  Every route
// on it sits behind JWTAuth and RequireRole(ADMIN).
type AdminHandler struct {
	Ledger Ledger
	Cache  Purger
	Log    logger.Logger
}

func NewAdminHandler(l Ledger, cache Purger, log logger.Logger) *AdminHandler {
	if l == nil {
		panic("nil ledger passed to NewAdminHandler")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AdminHandler{Ledger: l, Cache: cache, Log: log}
}

// ListRoutes handles GET /v1/admin/routes, past departures included.
func (h *AdminHandler) ListRoutes(c echo.Context) error {
	items, err := h.Ledger.ListRoutes(c.Request().Context())
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	loc := h.Ledger.Location()
	view := AdminRoutesView{Timezone: loc.String(), Routes: make([]AdminRouteRow, 0, len(items))}
	for _, a := range items {
		view.Routes = append(view.Routes, adminRouteRow(a, loc))
	}
	return c.JSON(http.StatusOK, view)
}

// CreateRoute handles POST /v1/admin/routes.
func (h *AdminHandler) CreateRoute(c echo.Context) error {
	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	f := req.fields()
	ctx := c.Request().Context()
	rt, err := h.Ledger.CreateRoute(ctx, f)
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	purge(ctx, h.Cache, h.Log)
	a := availabilityOf(rt, rt.TotalSeats)
	return c.JSON(http.StatusCreated, adminRouteRow(a, h.Ledger.Location()))
}

// UpdateRoute handles PUT and PATCH /v1/admin/routes/:id.  Both expect
// the full field set, as submitted by the edit form.
func (h *AdminHandler) UpdateRoute(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	f := req.fields()
	ctx := c.Request().Context()
	rt, err := h.Ledger.UpdateRoute(ctx, id, f)
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	purge(ctx, h.Cache, h.Log)
	remaining, err := h.Ledger.SeatsRemaining(ctx, id)
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, adminRouteRow(availabilityOf(rt, remaining), h.Ledger.Location()))
}

// DeleteRoute handles DELETE /v1/admin/routes/:id.  The route's bookings
// are removed with it.
func (h *AdminHandler) DeleteRoute(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	ctx := c.Request().Context()
	if err := h.Ledger.DeleteRoute(ctx, id); err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	purge(ctx, h.Cache, h.Log)
	return c.NoContent(http.StatusNoContent)
}

// SeatsRemaining handles GET /v1/admin/routes/:id/seats.
func (h *AdminHandler) SeatsRemaining(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	n, err := h.Ledger.SeatsRemaining(c.Request().Context(), id)
	if err != nil {
		return respondLedgerError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"route_id": id, "seats_remaining": n})
}
