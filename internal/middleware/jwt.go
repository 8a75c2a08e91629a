package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxOperatorID = "user_id"
	CtxRole       = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the operator ID (uint64) and role (string) into the request
// context.  The provided secret must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, _ := claims.OperatorID()

			c.Set(CtxOperatorID, id)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
