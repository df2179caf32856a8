// Package handler exposes the HTTP layer: request binding, auth
// context, response shaping. All persistence and seat arbitration
// live in the repository package; handlers orchestrate.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/middleware"
	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/repository"
	"github.com/kirovavto/bus-reservation/internal/utils"
)

// AuthHandler implements register/login/refresh/logout over the user
// and token repositories.
type AuthHandler struct {
	Users          *repository.UserRepo
	Tokens         *repository.TokenRepo
	Verifier       utils.CredentialVerifier
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// userResponse is the public view of a user record. The credential
// column never leaves the handler layer.
type userResponse struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
	}
}

// Register creates a PASSENGER account. Staff accounts are created by
// an admin through the user management routes.
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}
	stored, err := h.Verifier.Encode(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credential encoding failed"})
	}
	u := model.User{
		Username: req.Username,
		Password: stored,
		Role:     model.RolePassenger,
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
	}
	id, err := h.Users.Create(ctx, &u)
	if errors.Is(err, repository.ErrUsernameExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	u.ID = id
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown user and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	u, err := h.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !h.Verifier.Verify(u.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issueTokens(c, u)
}

// Refresh swaps a live refresh token for a fresh pair. Tokens are
// single use; the old one is revoked inside Redeem.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	userID, err := h.Tokens.Redeem(ctx, utils.HashRefreshRaw(req.RefreshToken))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	return h.issueTokens(c, u)
}

// Logout revokes the presented refresh token. The access token simply
// expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.Revoke(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *AuthHandler) issueTokens(c echo.Context, u model.User) error {
	access, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	refresh, err := utils.NewRefreshToken(h.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	if err := h.Tokens.Store(c.Request().Context(), u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		ExpiresAt:    access.Exp.Unix(),
	})
}
