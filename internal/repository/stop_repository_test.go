package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/kirovavto/bus-reservation/internal/model"
)

func newStopMock(t *testing.T) (*StopRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewStopRepo(db), mock, func() { db.Close() }
}

func TestListByTripUnknownTripIsEmpty(t *testing.T) {
	repo, mock, done := newStopMock(t)
	defer done()

	mock.ExpectQuery("FROM stops WHERE trip_id").
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "name", "arrival_time", "departure_time", "price_from_start"}))

	stops, err := repo.ListByTrip(context.Background(), 999)
	if err != nil {
		t.Fatalf("ListByTrip: %v", err)
	}
	if stops == nil || len(stops) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", stops)
	}
}

func TestCreateBulkMultiRow(t *testing.T) {
	repo, mock, done := newStopMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO stops").
		WithArgs(
			uint64(1), "Киров", "08:00", "08:00", int64(0),
			uint64(1), "Вахруши", "08:35", "08:37", int64(120),
			uint64(1), "Слободской", "09:10", "09:10", int64(240),
		).
		WillReturnResult(sqlmock.NewResult(3, 3))

	stops := []model.Stop{
		{Name: "Киров", ArrivalTime: "08:00", DepartureTime: "08:00", PriceFromStart: 0},
		{Name: "Вахруши", ArrivalTime: "08:35", DepartureTime: "08:37", PriceFromStart: 120},
		{Name: "Слободской", ArrivalTime: "09:10", DepartureTime: "09:10", PriceFromStart: 240},
	}
	if err := repo.CreateBulk(context.Background(), 1, stops); err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateBulkEmptyIsNoop(t *testing.T) {
	repo, mock, done := newStopMock(t)
	defer done()

	if err := repo.CreateBulk(context.Background(), 1, nil); err != nil {
		t.Fatalf("CreateBulk(nil): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateBulkDanglingTrip(t *testing.T) {
	repo, mock, done := newStopMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO stops").
		WillReturnError(&mysql.MySQLError{
			Number:  1452,
			Message: "Cannot add or update a child row: a foreign key constraint fails",
		})

	stops := []model.Stop{{Name: "Киров", ArrivalTime: "08:00", DepartureTime: "08:00"}}
	if err := repo.CreateBulk(context.Background(), 12345, stops); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}
