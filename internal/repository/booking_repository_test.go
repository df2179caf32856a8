package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/kirovavto/bus-reservation/internal/model"
)

func newBookingMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	repo := NewBookingRepo(db, NewSeatRepo(db))
	return repo, mock, func() { db.Close() }
}

func expectActiveTrip(mock sqlmock.Sqlmock, tripID uint64) {
	mock.ExpectQuery("SELECT status FROM trips").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.TripActive))
}

func TestReserveSeatOutOfRange(t *testing.T) {
	repo, _, done := newBookingMock(t)
	defer done()

	for _, seat := range []int{0, -1, model.TotalSeats + 1} {
		b := model.Booking{UserID: 1, TripID: 2, SeatNumber: seat, PassengerName: "Иванов И.И."}
		if err := repo.Reserve(context.Background(), &b); !errors.Is(err, ErrSeatOutOfRange) {
			t.Fatalf("seat %d: expected ErrSeatOutOfRange, got %v", seat, err)
		}
	}
}

func TestReserveUnknownTrip(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery("SELECT status FROM trips").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	b := model.Booking{UserID: 1, TripID: 99, SeatNumber: 5, PassengerName: "Иванов И.И."}
	if err := repo.Reserve(context.Background(), &b); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestReserveCancelledTrip(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery("SELECT status FROM trips").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.TripCancelled))

	b := model.Booking{UserID: 1, TripID: 3, SeatNumber: 5, PassengerName: "Иванов И.И."}
	if err := repo.Reserve(context.Background(), &b); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound for cancelled trip, got %v", err)
	}
}

func TestReserveSeatTaken(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	expectActiveTrip(mock, 2)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "ivanov@example.com", 12).
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry '2-12' for key 'bookings.uniq_trip_seat'",
		})

	b := model.Booking{UserID: 1, TripID: 2, SeatNumber: 12, PassengerName: "Иванов И.И.", PassengerEmail: "ivanov@example.com"}
	if err := repo.Reserve(context.Background(), &b); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken, got %v", err)
	}
}

func TestReserveWritesBackDefaults(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	booked := time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)
	expectActiveTrip(mock, 2)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "ivanov@example.com", 12).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, booked))

	b := model.Booking{UserID: 1, TripID: 2, SeatNumber: 12, PassengerName: "Иванов И.И.", PassengerEmail: "ivanov@example.com"}
	if err := repo.Reserve(context.Background(), &b); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.ID != 7 || b.Status != model.BookingActive || !b.BookingDate.Equal(booked) {
		t.Fatalf("defaults not read back: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReserveAutoPicksLowestFreeSeat(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	expectActiveTrip(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(2).AddRow(4))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "", 3).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, time.Now()))
	mock.ExpectCommit()

	b := model.Booking{UserID: 1, TripID: 2, PassengerName: "Иванов И.И."}
	if err := repo.ReserveAuto(context.Background(), &b); err != nil {
		t.Fatalf("ReserveAuto: %v", err)
	}
	if b.SeatNumber != 3 {
		t.Fatalf("got seat %d, want 3", b.SeatNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReserveAutoRetriesAfterLostRace(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	expectActiveTrip(mock, 2)

	// First attempt: seat 3 looks free but a concurrent sale wins it.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(2))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "", 3).
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry '2-3' for key 'bookings.uniq_trip_seat'",
		})
	mock.ExpectRollback()

	// Second attempt sees the fresh snapshot and takes seat 4.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(2).AddRow(3))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "", 4).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, time.Now()))
	mock.ExpectCommit()

	b := model.Booking{UserID: 1, TripID: 2, PassengerName: "Иванов И.И."}
	if err := repo.ReserveAuto(context.Background(), &b); err != nil {
		t.Fatalf("ReserveAuto: %v", err)
	}
	if b.SeatNumber != 4 {
		t.Fatalf("got seat %d, want 4", b.SeatNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReserveGroupRejectsDuplicateSeatInPurchase(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	expectActiveTrip(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "", 5).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, time.Now()))
	mock.ExpectRollback()

	_, err := repo.ReserveGroup(context.Background(), 1, 2, []GroupPassenger{
		{Name: "Иванов И.И.", Seat: 5},
		{Name: "Петров П.П.", Seat: 5},
	})
	if !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken for duplicate seat in purchase, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReserveGroupAutoSeesEarlierPassengers(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	expectActiveTrip(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Иванов И.И.", "", 2).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, time.Now()))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(2), "Петров П.П.", "", 3).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery("SELECT status, booking_date FROM bookings").
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "booking_date"}).AddRow(model.BookingActive, time.Now()))
	mock.ExpectCommit()

	out, err := repo.ReserveGroup(context.Background(), 1, 2, []GroupPassenger{
		{Name: "Иванов И.И."},
		{Name: "Петров П.П."},
	})
	if err != nil {
		t.Fatalf("ReserveGroup: %v", err)
	}
	if len(out) != 2 || out[0].SeatNumber != 2 || out[1].SeatNumber != 3 {
		t.Fatalf("unexpected seats: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteBooking(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM bookings").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM bookings").
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 7)
	if err != nil || !deleted {
		t.Fatalf("Delete(7) = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(context.Background(), 8)
	if err != nil || deleted {
		t.Fatalf("Delete(8) = %v, %v; want false, nil", deleted, err)
	}
}

func TestCancelMissingBooking(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Cancel(context.Background(), 42); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestGetWithTripNotFound(t *testing.T) {
	repo, mock, done := newBookingMock(t)
	defer done()

	mock.ExpectQuery("FROM bookings b").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetWithTrip(context.Background(), 5); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}
