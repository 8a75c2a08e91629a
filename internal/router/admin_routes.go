package router

import (
	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/handler"
	"github.com/swiftseat/coach-booking/internal/middleware"
	"github.com/swiftseat/coach-booking/internal/model"
)

// RegisterAdmin registers operator endpoints under /v1/admin.  All routes
// require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Routes ----
	g.GET("/routes", a.ListRoutes)
	g.POST("/routes", a.CreateRoute)
	g.PUT("/routes/:id", a.UpdateRoute)
	g.PATCH("/routes/:id", a.UpdateRoute)
	g.DELETE("/routes/:id", a.DeleteRoute)
	g.GET("/routes/:id/seats", a.SeatsRemaining)

	// ---- Bookings ----
	g.GET("/bookings", a.ListBookings)
}
