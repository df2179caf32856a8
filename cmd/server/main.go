package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kirovavto/bus-reservation/internal/config"
	"github.com/kirovavto/bus-reservation/internal/database"
	"github.com/kirovavto/bus-reservation/internal/geo"
	"github.com/kirovavto/bus-reservation/internal/handler"
	"github.com/kirovavto/bus-reservation/internal/queue"
	"github.com/kirovavto/bus-reservation/internal/repository"
	"github.com/kirovavto/bus-reservation/internal/router"
	"github.com/kirovavto/bus-reservation/internal/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Bootstrap(ctx, db); err != nil {
		cancel()
		log.Fatalf("bootstrap: %v", err)
	}
	cancel()

	trips := repository.NewTripRepo(db)
	stops := repository.NewStopRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db, seats)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sales := repository.NewSalesRepo(db)
	verifier := utils.NewCredentialVerifier(cfg.CredentialScheme, cfg.BcryptCost)

	if cfg.AMQPURL != "" {
		go queue.StartTicketConsumer(cfg.AMQPURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	router.Register(e, router.Handlers{
		Health: &handler.HealthHandler{DB: db},
		Auth: &handler.AuthHandler{
			Users:          users,
			Tokens:         tokens,
			Verifier:       verifier,
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
		},
		Catalog: &handler.CatalogHandler{Trips: trips, Stops: stops, Seats: seats, Geo: geo.Default()},
		Booking: &handler.BookingHandler{Bookings: bookings, Trips: trips, AMQPURL: cfg.AMQPURL},
		Staff:   &handler.StaffHandler{Bookings: bookings, Sales: sales},
		Admin:   &handler.AdminHandler{Trips: trips, Stops: stops, Users: users, Verifier: verifier},
	}, cfg, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
