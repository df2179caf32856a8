package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirovavto/bus-reservation/internal/model"
)

func TestNextFreeSeat(t *testing.T) {
	cases := []struct {
		name     string
		occupied []int
		want     int
	}{
		{"empty bus", nil, 1},
		{"front taken", []int{1, 2}, 3},
		{"gap wins over tail", []int{1, 3, 4}, 2},
		{"only last free", seatRange(1, model.TotalSeats-1), model.TotalSeats},
		{"unordered input", []int{5, 1, 3, 2}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextFreeSeat(tc.occupied)
			if err != nil {
				t.Fatalf("NextFreeSeat: %v", err)
			}
			if got != tc.want {
				t.Fatalf("NextFreeSeat(%v) = %d, want %d", tc.occupied, got, tc.want)
			}
		})
	}
}

func TestNextFreeSeatFullBus(t *testing.T) {
	_, err := NextFreeSeat(seatRange(1, model.TotalSeats))
	if !errors.Is(err, ErrTripFull) {
		t.Fatalf("expected ErrTripFull, got %v", err)
	}
}

func TestNextFreeSeatStaysInRange(t *testing.T) {
	// Occupancy with numbers outside 1..TotalSeats must never push the
	// allocator out of range.
	got, err := NextFreeSeat([]int{0, -3, model.TotalSeats + 10, 1})
	if err != nil {
		t.Fatalf("NextFreeSeat: %v", err)
	}
	if got != 2 {
		t.Fatalf("got seat %d, want 2", got)
	}
}

func TestOccupiedSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"seat_number"}).AddRow(2).AddRow(7).AddRow(11)
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(4)).
		WillReturnRows(rows)

	repo := NewSeatRepo(db)
	occ, err := repo.OccupiedSeats(context.Background(), 4)
	if err != nil {
		t.Fatalf("OccupiedSeats: %v", err)
	}
	if len(occ) != 3 || occ[0] != 2 || occ[2] != 11 {
		t.Fatalf("unexpected occupancy %v", occ)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAllocateSeatPicksLowest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(2).AddRow(4)
	mock.ExpectQuery("SELECT seat_number FROM bookings").
		WithArgs(uint64(9)).
		WillReturnRows(rows)

	repo := NewSeatRepo(db)
	seat, err := repo.AllocateSeat(context.Background(), 9)
	if err != nil {
		t.Fatalf("AllocateSeat: %v", err)
	}
	if seat != 3 {
		t.Fatalf("got seat %d, want 3", seat)
	}
}

func TestIsSeatFreeOutOfRange(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewSeatRepo(db)
	for _, seat := range []int{0, -1, model.TotalSeats + 1} {
		if _, err := repo.IsSeatFree(context.Background(), 1, seat); !errors.Is(err, ErrSeatOutOfRange) {
			t.Fatalf("seat %d: expected ErrSeatOutOfRange, got %v", seat, err)
		}
	}
}

func seatRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}
