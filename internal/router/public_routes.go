package router

import (
	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/handler"
)

// RegisterPublic registers the passenger-facing booking endpoints.  cache
// wraps the route listing; limit guards booking submissions.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache, limit echo.MiddlewareFunc) {
	e.GET("/v1/routes", p.ListRoutes, cache)
	e.POST("/v1/bookings", p.CreateBooking, limit)
}
