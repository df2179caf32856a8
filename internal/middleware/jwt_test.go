package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kirovavto/bus-reservation/internal/model"
	"github.com/kirovavto/bus-reservation/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, c
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := runProtected(t, "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, model.RolePassenger, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, _ := runProtected(t, "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, model.RoleCashier, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, c := runProtected(t, "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if id, _ := c.Get(CtxUserID).(uint64); id != 7 {
		t.Fatalf("user_id = %v, want 7", c.Get(CtxUserID))
	}
	if role, _ := c.Get(CtxRole).(string); role != model.RoleCashier {
		t.Fatalf("role = %v, want CASHIER", c.Get(CtxRole))
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role any
		want int
	}{
		{"allowed role", model.RoleAdmin, http.StatusOK},
		{"other allowed role", model.RoleCashier, http.StatusOK},
		{"forbidden role", model.RolePassenger, http.StatusForbidden},
		{"missing role", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set(CtxRole, tc.role)
			}
			h := RequireRole(model.RoleCashier, model.RoleAdmin)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
