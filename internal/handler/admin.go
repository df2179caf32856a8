package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/repository"
	"github.com/kirovavto/bus-reservation/internal/utils"
)

// AdminHandler covers the management surface: trip and stop CRUD plus
// user administration. Every route requires the ADMIN role.
type AdminHandler struct {
	Trips    *repository.TripRepo
	Stops    *repository.StopRepo
	Users    *repository.UserRepo
	Verifier utils.CredentialVerifier
}

var clockTime = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type tripRequest struct {
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Price         int64  `json:"price"`
	Status        string `json:"status"`
}

func (r *tripRequest) validate() string {
	switch {
	case r.FromCity == "" || r.ToCity == "":
		return "from_city and to_city are required"
	case !clockTime.MatchString(r.DepartureTime) || !clockTime.MatchString(r.ArrivalTime):
		return "departure_time and arrival_time must be HH:MM"
	case r.Price < 0:
		return "price must not be negative"
	case r.Status != "" && r.Status != model.TripActive && r.Status != model.TripCancelled:
		return "status must be Active or Cancelled"
	}
	return ""
}

// CreateTrip adds a timetable entry. Status defaults to Active.
func (h *AdminHandler) CreateTrip(c echo.Context) error {
	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.Status == "" {
		req.Status = model.TripActive
	}
	t := model.Trip{
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Status:        req.Status,
	}
	if err := h.Trips.Create(c.Request().Context(), &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toTripResponse(t))
}

// UpdateTrip replaces all mutable fields of a trip.
func (h *AdminHandler) UpdateTrip(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.Status == "" {
		req.Status = model.TripActive
	}
	t := model.Trip{
		ID:            id,
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Status:        req.Status,
	}
	if err := h.Trips.Update(c.Request().Context(), &t); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTripResponse(t))
}

// DeleteTrip removes a trip. Trips with bookings are protected by the
// foreign key and answer 409.
func (h *AdminHandler) DeleteTrip(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Trips.Delete(c.Request().Context(), id)
	switch {
	case errors.Is(err, repository.ErrTripNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
	case errors.Is(err, repository.ErrIntegrity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "trip has bookings"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

type stopRequest struct {
	Name           string `json:"name"`
	ArrivalTime    string `json:"arrival_time"`
	DepartureTime  string `json:"departure_time"`
	PriceFromStart int64  `json:"price_from_start"`
}

// ReplaceStops swaps a trip's whole route for the given stop list.
// Cumulative prices must not decrease along the route.
func (h *AdminHandler) ReplaceStops(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var reqs []stopRequest
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	stops := make([]model.Stop, 0, len(reqs))
	var prev int64
	for _, s := range reqs {
		if s.Name == "" || !clockTime.MatchString(s.ArrivalTime) || !clockTime.MatchString(s.DepartureTime) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every stop needs a name and HH:MM times"})
		}
		if s.PriceFromStart < prev {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_from_start must not decrease along the route"})
		}
		prev = s.PriceFromStart
		stops = append(stops, model.Stop{
			Name:           s.Name,
			ArrivalTime:    s.ArrivalTime,
			DepartureTime:  s.DepartureTime,
			PriceFromStart: s.PriceFromStart,
		})
	}
	if _, err := h.Trips.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if _, err := h.Stops.DeleteByTrip(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(stops) > 0 {
		if err := h.Stops.CreateBulk(ctx, id, stops); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": id, "stops": len(stops)})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func validRole(r string) bool {
	return r == model.RolePassenger || r == model.RoleCashier || r == model.RoleAdmin
}

// ListUsers returns every account without credentials.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateUser adds an account with any role; this is how cashier and
// admin accounts come into existence.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	if !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be PASSENGER, CASHIER or ADMIN"})
	}
	stored, err := h.Verifier.Encode(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credential encoding failed"})
	}
	u := model.User{
		Username: req.Username,
		Password: stored,
		Role:     req.Role,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	id, err := h.Users.Create(c.Request().Context(), &u)
	if errors.Is(err, repository.ErrUsernameExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	u.ID = id
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// UpdateUser edits profile fields and role.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be PASSENGER, CASHIER or ADMIN"})
	}
	err = h.Users.UpdateProfile(c.Request().Context(), id, req.FullName, req.Email, req.Phone, req.Role)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// DeleteUser removes an account. Accounts holding bookings are kept
// for ledger integrity and answer 409.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Users.Delete(c.Request().Context(), id)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrIntegrity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "user has bookings"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
