package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/geo"
	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/repository"
)

// CatalogHandler serves the unauthenticated timetable: trips, stops,
// seat availability and stop coordinates. These routes sit behind the
// Redis response cache.
type CatalogHandler struct {
	Trips *repository.TripRepo
	Stops *repository.StopRepo
	Seats *repository.SeatRepo
	Geo   *geo.Index
}

type tripResponse struct {
	ID            uint64 `json:"id"`
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Price         int64  `json:"price"`
	Status        string `json:"status"`
}

type stopResponse struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	ArrivalTime    string `json:"arrival_time"`
	DepartureTime  string `json:"departure_time"`
	PriceFromStart int64  `json:"price_from_start"`
}

func toTripResponse(t model.Trip) tripResponse {
	return tripResponse{
		ID:            t.ID,
		FromCity:      t.FromCity,
		ToCity:        t.ToCity,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		Price:         t.Price,
		Status:        t.Status,
	}
}

func tripList(trips []model.Trip) []tripResponse {
	out := make([]tripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	return out
}

// ListTrips returns the whole timetable ordered by departure time.
func (h *CatalogHandler) ListTrips(c echo.Context) error {
	trips, err := h.Trips.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tripList(trips)})
}

// GetTrip returns a single trip by id.
func (h *CatalogHandler) GetTrip(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Trips.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrTripNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTripResponse(*t))
}

// SearchTrips matches trips whose endpoints contain the given
// substrings, case sensitively. The optional date parameter is
// accepted for URL compatibility but does not filter: the timetable
// repeats daily.
func (h *CatalogHandler) SearchTrips(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	trips, err := h.Trips.Search(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tripList(trips)})
}

// ListStops returns a trip's route ordered by arrival time.
func (h *CatalogHandler) ListStops(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Trips.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	stops, err := h.Stops.ListByTrip(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]stopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, stopResponse{
			ID:             s.ID,
			Name:           s.Name,
			ArrivalTime:    s.ArrivalTime,
			DepartureTime:  s.DepartureTime,
			PriceFromStart: s.PriceFromStart,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SeatAvailability reports occupied seat numbers and the remaining
// free count for a trip. The occupancy is a snapshot; only the insert
// itself arbitrates a booking.
func (h *CatalogHandler) SeatAvailability(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Trips.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied, err := h.Seats.OccupiedSeats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_seats": model.TotalSeats,
		"occupied":    occupied,
		"free":        model.TotalSeats - len(occupied),
	})
}

// Coordinates resolves a stop or city name to latitude/longitude for
// map display. Unknown names are 404, not errors.
func (h *CatalogHandler) Coordinates(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	pt, ok := h.Geo.Lookup(name)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown place"})
	}
	return c.JSON(http.StatusOK, echo.Map{"name": name, "lat": pt.Lat, "lon": pt.Lon})
}
