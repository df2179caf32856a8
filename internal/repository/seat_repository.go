package repository

import (
	"context"
	"database/sql"

	"github.com/kirovavto/bus-reservation/internal/model"
)

// SeatRepo answers seat availability questions for trips. Occupancy is
// always recomputed from the bookings table on every call: a cached
// view could hand two cashiers the same "free" seat. Only bookings
// with status Active count.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

type seatQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const occupiedQuery = `SELECT seat_number FROM bookings
	WHERE trip_id = ? AND status = 'Active' ORDER BY seat_number ASC`

func occupiedSeats(ctx context.Context, q seatQuerier, tripID uint64) ([]int, error) {
	rows, err := q.QueryContext(ctx, occupiedQuery, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]int, 0, model.TotalSeats)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OccupiedSeats returns the seat numbers of all active bookings on the
// trip, ascending. An unknown trip simply has no occupied seats.
func (r *SeatRepo) OccupiedSeats(ctx context.Context, tripID uint64) ([]int, error) {
	return occupiedSeats(ctx, r.db, tripID)
}

// OccupiedSeatsTx is OccupiedSeats inside the caller's transaction,
// used by the reserve path so the scan and the insert observe one
// consistent snapshot.
func (r *SeatRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, tripID uint64) ([]int, error) {
	return occupiedSeats(ctx, tx, tripID)
}

// NextFreeSeat scans 1..TotalSeats in increasing order and returns the
// first number absent from occupied. First-fit lowest-first keeps
// allocation deterministic; there is no modeled benefit to any other
// ordering. Returns ErrTripFull when every seat is taken.
func NextFreeSeat(occupied []int) (int, error) {
	taken := make(map[int]struct{}, len(occupied))
	for _, n := range occupied {
		taken[n] = struct{}{}
	}
	for seat := 1; seat <= model.TotalSeats; seat++ {
		if _, ok := taken[seat]; !ok {
			return seat, nil
		}
	}
	return 0, ErrTripFull
}

// AllocateSeat picks the lowest free seat on the trip. The result is
// only advisory: the unique key on (trip_id, seat_key) is what finally
// arbitrates, so a concurrent sale can still invalidate it before the
// booking is written.
func (r *SeatRepo) AllocateSeat(ctx context.Context, tripID uint64) (int, error) {
	occ, err := r.OccupiedSeats(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return NextFreeSeat(occ)
}

// IsSeatFree re-validates a manually chosen seat right before the
// write, because the seat map shown to staff may be stale by the time
// they confirm. Out-of-range numbers are free in no world.
func (r *SeatRepo) IsSeatFree(ctx context.Context, tripID uint64, seat int) (bool, error) {
	if seat < 1 || seat > model.TotalSeats {
		return false, ErrSeatOutOfRange
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE trip_id = ? AND seat_number = ? AND status = 'Active'`,
		tripID, seat).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
