package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/middleware"
	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/queue"
	"github.com/kirovavto/bus-reservation/internal/repository"
	"github.com/kirovavto/bus-reservation/internal/service"
)

// BookingHandler drives the booking ledger: seat purchase (manual,
// auto and group), ticket lists, receipts and cancellation.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Trips    *repository.TripRepo
	AMQPURL  string // empty disables event publishing
}

type createBookingRequest struct {
	TripID         uint64 `json:"trip_id"`
	SeatNumber     int    `json:"seat_number"` // 0 requests auto-allocation
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
}

type groupPassengerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Seat  int    `json:"seat"` // 0 requests auto-allocation
}

type groupBookingRequest struct {
	TripID     uint64                  `json:"trip_id"`
	Passengers []groupPassengerRequest `json:"passengers"`
}

type bookingResponse struct {
	ID             uint64    `json:"id"`
	TripID         uint64    `json:"trip_id"`
	SeatNumber     int       `json:"seat_number"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	Status         string    `json:"status"`
	BookingDate    time.Time `json:"booking_date"`
}

func toBookingResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		TripID:         b.TripID,
		SeatNumber:     b.SeatNumber,
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		Status:         b.Status,
		BookingDate:    b.BookingDate,
	}
}

// Create books one seat on a trip for the authenticated user. A zero
// seat number asks the allocator for the lowest free seat; a concrete
// one is taken as-is or rejected with 409 when already held.
func (h *BookingHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TripID == 0 || req.PassengerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id and passenger_name are required"})
	}

	b := model.Booking{
		UserID:         userID,
		TripID:         req.TripID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		SeatNumber:     req.SeatNumber,
	}
	var err error
	if req.SeatNumber == 0 {
		err = h.Bookings.ReserveAuto(ctx, &b)
	} else {
		err = h.Bookings.Reserve(ctx, &b)
	}
	if err != nil {
		return bookingError(c, err)
	}
	h.publishTicket(b)
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// CreateGroup books several seats on one trip atomically: either every
// passenger gets a seat or nothing is written.
func (h *BookingHandler) CreateGroup(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req groupBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TripID == 0 || len(req.Passengers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id and passengers are required"})
	}
	passengers := make([]repository.GroupPassenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		if p.Name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every passenger needs a name"})
		}
		passengers = append(passengers, repository.GroupPassenger{Name: p.Name, Email: p.Email, Seat: p.Seat})
	}

	bookings, err := h.Bookings.ReserveGroup(ctx, userID, req.TripID, passengers)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		h.publishTicket(b)
		out = append(out, toBookingResponse(b))
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": out})
}

// ListMine returns the caller's active tickets, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one booking joined with its trip. Passengers see only
// their own bookings; staff see any.
func (h *BookingHandler) Get(c echo.Context) error {
	d, ok := h.authorizedDetail(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, d)
}

// Receipt returns the printable receipt projection for a booking,
// with the same ownership rule as Get.
func (h *BookingHandler) Receipt(c echo.Context) error {
	d, ok := h.authorizedDetail(c)
	if !ok {
		return nil
	}
	rc, err := h.Bookings.GetReceipt(c.Request().Context(), d.ID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, rc)
}

// Delete removes a booking outright, freeing its seat. Passengers may
// delete only their own bookings.
func (h *BookingHandler) Delete(c echo.Context) error {
	d, ok := h.authorizedDetail(c)
	if !ok {
		return nil
	}
	deleted, err := h.Bookings.Delete(c.Request().Context(), d.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// authorizedDetail loads the booking from the :id param and enforces
// the owner-or-staff rule. On failure it writes the error response
// itself and reports ok=false so the handler stops.
func (h *BookingHandler) authorizedDetail(c echo.Context) (*repository.BookingDetail, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		return nil, false
	}
	d, err := h.Bookings.GetWithTrip(c.Request().Context(), id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		return nil, false
	}
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil, false
	}
	userID, _ := c.Get(middleware.CtxUserID).(uint64)
	role, _ := c.Get(middleware.CtxRole).(string)
	if d.UserID != userID && role != model.RoleCashier && role != model.RoleAdmin {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return nil, false
	}
	return d, true
}

func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTripNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
	case errors.Is(err, repository.ErrSeatOutOfRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat number out of range"})
	case errors.Is(err, repository.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
	case errors.Is(err, repository.ErrTripFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no free seats left"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// publishTicket emits a ticket.issued event off the request path. The
// booking already committed; broker failures are logged and dropped.
func (h *BookingHandler) publishTicket(b model.Booking) {
	if h.AMQPURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		t, err := h.Trips.GetByID(ctx, b.TripID)
		if err != nil {
			log.Printf("ticket event: load trip %d: %v", b.TripID, err)
			return
		}
		ev := queue.TicketIssuedEvent{
			BookingID:     b.ID,
			UserID:        b.UserID,
			TripID:        b.TripID,
			FromCity:      t.FromCity,
			ToCity:        t.ToCity,
			DepartureTime: t.DepartureTime,
			SeatNumber:    b.SeatNumber,
			PassengerName: b.PassengerName,
			Price:         t.Price,
			IssuedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		_ = service.PublishTicketIssued(ctx, h.AMQPURL, ev)
	}()
}
