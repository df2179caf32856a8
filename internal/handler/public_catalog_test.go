package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/geo"
	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/repository"
)

func newCatalog(t *testing.T) (*CatalogHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	h := &CatalogHandler{
		Trips: repository.NewTripRepo(db),
		Stops: repository.NewStopRepo(db),
		Seats: repository.NewSeatRepo(db),
		Geo:   geo.Default(),
	}
	return h, mock, func() { db.Close() }
}

func catalogContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSeatAvailability(t *testing.T) {
	h, mock, done := newCatalog(t)
	defer done()

	tripRows := sqlmock.NewRows([]string{"id", "from_city", "to_city", "departure_time", "arrival_time", "price", "status"}).
		AddRow(2, "Киров", "Слободской", "08:00", "09:10", 240, model.TripActive)
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(uint64(2)).WillReturnRows(tripRows)
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(5))

	c, rec := catalogContext(t, "/v1/trips/2/seats")
	c.SetParamNames("id")
	c.SetParamValues("2")
	if err := h.SeatAvailability(c); err != nil {
		t.Fatalf("SeatAvailability: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		TotalSeats int   `json:"total_seats"`
		Occupied   []int `json:"occupied"`
		Free       int   `json:"free"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.TotalSeats != model.TotalSeats || body.Free != model.TotalSeats-2 || len(body.Occupied) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSeatAvailabilityUnknownTrip(t *testing.T) {
	h, mock, done := newCatalog(t)
	defer done()

	mock.ExpectQuery("FROM trips WHERE id").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := catalogContext(t, "/v1/trips/99/seats")
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.SeatAvailability(c); err != nil {
		t.Fatalf("SeatAvailability: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetTripBadID(t *testing.T) {
	h, _, done := newCatalog(t)
	defer done()

	c, rec := catalogContext(t, "/v1/trips/abc")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.GetTrip(c); err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCoordinates(t *testing.T) {
	h, _, done := newCatalog(t)
	defer done()

	c, rec := catalogContext(t, "/v1/geo/coordinates?name=Киров")
	if err := h.Coordinates(c); err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Lat == 0 || body.Lon == 0 {
		t.Fatalf("zero coordinates %+v", body)
	}
}

func TestCoordinatesUnknownPlace(t *testing.T) {
	h, _, done := newCatalog(t)
	defer done()

	c, rec := catalogContext(t, "/v1/geo/coordinates?name=Урюпинск")
	if err := h.Coordinates(c); err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
