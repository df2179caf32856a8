package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/repository"
)

// StaffHandler serves the cashier/admin reporting surface: full
// ticket lists and the sales aggregates.
type StaffHandler struct {
	Bookings *repository.BookingRepo
	Sales    *repository.SalesRepo
}

// ListBookings returns every active booking joined with its trip.
func (h *StaffHandler) ListBookings(c echo.Context) error {
	items, err := h.Bookings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// TripOccupancy reports how many active bookings a trip has.
func (h *StaffHandler) TripOccupancy(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	n, err := h.Bookings.CountForTrip(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": id, "booked": n})
}

// SalesForDay returns the count and revenue for one calendar day.
// The optional date query parameter is YYYY-MM-DD; today by default.
func (h *StaffHandler) SalesForDay(c echo.Context) error {
	var day time.Time
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		day = parsed
	}
	totals, err := h.Sales.SalesForDay(c.Request().Context(), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, totals)
}

// SalesForWindow returns totals for the trailing N days (default 7).
func (h *StaffHandler) SalesForWindow(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	totals, err := h.Sales.SalesForWindow(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, totals)
}

// PopularRoute returns the most-booked route of the trailing window
// (default 30 days), or 404 when the window holds no bookings.
func (h *StaffHandler) PopularRoute(c echo.Context) error {
	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	route, ok, err := h.Sales.MostPopularRoute(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no bookings in window"})
	}
	return c.JSON(http.StatusOK, route)
}

// Stats returns the dashboard counters.
func (h *StaffHandler) Stats(c echo.Context) error {
	stats, err := h.Sales.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}
