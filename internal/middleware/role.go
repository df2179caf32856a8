package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole forbids the request unless the role stored by JWTAuth is
// one of the given roles. Role names match the model.Role* constants
// ("PASSENGER", "CASHIER", "ADMIN").
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
