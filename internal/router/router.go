// Package router wires handlers to routes and attaches the auth,
// cache and rate-limit middleware per route group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kirovavto/bus-reservation/internal/config"
	"github.com/kirovavto/bus-reservation/internal/handler"
	"github.com/kirovavto/bus-reservation/internal/middleware"
	"github.com/kirovavto/bus-reservation/internal/model"
)

// Handlers bundles everything Register needs so main stays short.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Booking *handler.BookingHandler
	Staff   *handler.StaffHandler
	Admin   *handler.AdminHandler
}

// Register mounts every route group:
//
//	/healthz             liveness, no auth
//	/v1/auth/*           register/login/refresh/logout, rate limited
//	/v1/trips...         public catalog, cached
//	/v1/bookings...      any authenticated role, rate limited
//	/v1/staff/*          CASHIER or ADMIN
//	/v1/admin/*          ADMIN only
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	limit := middleware.TokenBucket(config.LoadRateLimitConfig(), rdb)

	e.GET("/healthz", h.Health.Health)

	auth := e.Group("/v1/auth", limit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	pub := e.Group("/v1", cache)
	pub.GET("/trips", h.Catalog.ListTrips)
	pub.GET("/trips/search", h.Catalog.SearchTrips)
	pub.GET("/trips/:id", h.Catalog.GetTrip)
	pub.GET("/trips/:id/stops", h.Catalog.ListStops)
	pub.GET("/trips/:id/seats", h.Catalog.SeatAvailability)
	pub.GET("/geo/coordinates", h.Catalog.Coordinates)

	user := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	user.GET("/me", h.Auth.Me)

	bookings := user.Group("/bookings", limit)
	bookings.POST("", h.Booking.Create)
	bookings.POST("/group", h.Booking.CreateGroup)
	bookings.GET("", h.Booking.ListMine)
	bookings.GET("/:id", h.Booking.Get)
	bookings.GET("/:id/receipt", h.Booking.Receipt)
	bookings.DELETE("/:id", h.Booking.Delete)

	staff := user.Group("/staff", middleware.RequireRole(model.RoleCashier, model.RoleAdmin))
	staff.GET("/bookings", h.Staff.ListBookings)
	staff.GET("/trips/:id/occupancy", h.Staff.TripOccupancy)
	staff.GET("/sales/day", h.Staff.SalesForDay)
	staff.GET("/sales/window", h.Staff.SalesForWindow)
	staff.GET("/sales/popular-route", h.Staff.PopularRoute)
	staff.GET("/stats", h.Staff.Stats)

	admin := user.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/trips", h.Admin.CreateTrip)
	admin.PUT("/trips/:id", h.Admin.UpdateTrip)
	admin.DELETE("/trips/:id", h.Admin.DeleteTrip)
	admin.PUT("/trips/:id/stops", h.Admin.ReplaceStops)
	admin.GET("/users", h.Admin.ListUsers)
	admin.POST("/users", h.Admin.CreateUser)
	admin.PUT("/users/:id", h.Admin.UpdateUser)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
}
