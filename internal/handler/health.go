package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	DB *sql.DB
}

// Health answers 200 after a DB round trip, 503 when the database does
// not respond. Load balancers poll this route.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": "database unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
