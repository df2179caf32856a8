package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kirovavto/bus-reservation/internal/model"
)

// BookingRepo is the booking ledger: it creates, lists and removes
// booking records and produces the joined views (per-user tickets,
// staff ticket lists, receipts). All writes are guarded by the
// store-level unique key on (trip_id, seat_key), so a lost race never
// produces a double booking — it produces ErrSeatTaken.
type BookingRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewBookingRepo constructs a BookingRepo. The SeatRepo is consulted
// inside reserve transactions for occupancy snapshots.
func NewBookingRepo(db *sql.DB, seats *SeatRepo) *BookingRepo {
	return &BookingRepo{db: db, seats: seats}
}

// DB exposes the underlying handle for callers composing their own
// transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// GroupPassenger is one traveller of a multi-seat purchase. Seat 0
// requests auto-allocation for that traveller.
type GroupPassenger struct {
	Name  string
	Email string
	Seat  int
}

// autoSeatAttempts bounds the allocate-then-insert retry loop. Each
// lost race occupies one more seat, so attempts beyond the bus
// capacity cannot make progress anyway.
const autoSeatAttempts = 3

// Reserve books a specific seat. Preconditions: the trip exists and is
// active, the seat is in range. The seat being free is not a
// precondition — the insert itself arbitrates, returning ErrSeatTaken
// when another active booking holds the pair, so validation staleness
// can never corrupt the ledger.
func (r *BookingRepo) Reserve(ctx context.Context, b *model.Booking) error {
	if b.SeatNumber < 1 || b.SeatNumber > model.TotalSeats {
		return ErrSeatOutOfRange
	}
	if err := r.checkTrip(ctx, b.TripID); err != nil {
		return err
	}
	return r.insert(ctx, r.db, b)
}

// ReserveAuto books the lowest free seat on the trip. The occupancy
// scan and the insert run in one transaction; if a concurrent sale
// still wins the unique key, allocation is retried with a fresh
// snapshot. Returns ErrTripFull once no seat remains.
func (r *BookingRepo) ReserveAuto(ctx context.Context, b *model.Booking) error {
	if err := r.checkTrip(ctx, b.TripID); err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt < autoSeatAttempts; attempt++ {
		err := r.reserveAutoOnce(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSeatTaken) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (r *BookingRepo) reserveAutoOnce(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	occ, err := r.seats.OccupiedSeatsTx(ctx, tx, b.TripID)
	if err != nil {
		return err
	}
	seat, err := NextFreeSeat(occ)
	if err != nil {
		return err
	}
	b.SeatNumber = seat
	if err := r.insert(ctx, tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReserveGroup books one seat per passenger in a single all-or-nothing
// transaction: when passenger 3 of 5 fails, passengers 1 and 2 are
// rolled back too. Manual and auto seats can be mixed; auto seats are
// allocated against the transaction's own view, so earlier passengers
// in the same purchase count as occupied for later ones.
func (r *BookingRepo) ReserveGroup(ctx context.Context, userID, tripID uint64, passengers []GroupPassenger) ([]model.Booking, error) {
	if len(passengers) == 0 {
		return []model.Booking{}, nil
	}
	if err := r.checkTrip(ctx, tripID); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	occ, err := r.seats.OccupiedSeatsTx(ctx, tx, tripID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]struct{}, len(occ)+len(passengers))
	for _, n := range occ {
		taken[n] = struct{}{}
	}

	out := make([]model.Booking, 0, len(passengers))
	for _, p := range passengers {
		seat := p.Seat
		if seat == 0 {
			snapshot := make([]int, 0, len(taken))
			for n := range taken {
				snapshot = append(snapshot, n)
			}
			seat, err = NextFreeSeat(snapshot)
			if err != nil {
				return nil, err
			}
		} else if seat < 1 || seat > model.TotalSeats {
			return nil, ErrSeatOutOfRange
		} else if _, dup := taken[seat]; dup {
			return nil, ErrSeatTaken
		}
		b := model.Booking{
			UserID:         userID,
			TripID:         tripID,
			PassengerName:  p.Name,
			PassengerEmail: p.Email,
			SeatNumber:     seat,
		}
		if err := r.insert(ctx, tx, &b); err != nil {
			return nil, err
		}
		taken[seat] = struct{}{}
		out = append(out, b)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert writes the booking row and reads back the DB-defaulted
// status and booking date. Unique-key and FK violations are mapped to
// their typed errors here so every reserve path reports identically.
func (r *BookingRepo) insert(ctx context.Context, ex execer, b *model.Booking) error {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO bookings (user_id, trip_id, passenger_name, passenger_email, seat_number) VALUES (?,?,?,?,?)`,
		b.UserID, b.TripID, b.PassengerName, b.PassengerEmail, b.SeatNumber)
	if err != nil {
		if dupKeyError(err, "uniq_trip_seat") {
			return ErrSeatTaken
		}
		if fkError(err) {
			return ErrIntegrity
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return ex.QueryRowContext(ctx,
		`SELECT status, booking_date FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.Status, &b.BookingDate)
}

// checkTrip verifies the trip exists and is still sellable.
func (r *BookingRepo) checkTrip(ctx context.Context, tripID uint64) error {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM trips WHERE id = ?`, tripID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTripNotFound
	}
	if err != nil {
		return err
	}
	if status != model.TripActive {
		return ErrTripNotFound
	}
	return nil
}

// BookingDetail is a booking joined with its trip, as shown on ticket
// lists. Price is the trip's full fare in rubles.
type BookingDetail struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	TripID         uint64    `json:"trip_id"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	SeatNumber     int       `json:"seat_number"`
	Status         string    `json:"status"`
	BookingDate    time.Time `json:"booking_date"`
	FromCity       string    `json:"from_city"`
	ToCity         string    `json:"to_city"`
	DepartureTime  string    `json:"departure_time"`
	ArrivalTime    string    `json:"arrival_time"`
	Price          int64     `json:"price"`
}

const detailQuery = `SELECT b.id, b.user_id, b.trip_id, b.passenger_name, b.passenger_email,
		b.seat_number, b.status, b.booking_date,
		t.from_city, t.to_city, t.departure_time, t.arrival_time, t.price
	FROM bookings b
	JOIN trips t ON t.id = b.trip_id`

func scanDetail(row interface{ Scan(...any) error }) (BookingDetail, error) {
	var d BookingDetail
	err := row.Scan(&d.ID, &d.UserID, &d.TripID, &d.PassengerName, &d.PassengerEmail,
		&d.SeatNumber, &d.Status, &d.BookingDate,
		&d.FromCity, &d.ToCity, &d.DepartureTime, &d.ArrivalTime, &d.Price)
	return d, err
}

func (r *BookingRepo) listDetails(ctx context.Context, where string, args ...any) ([]BookingDetail, error) {
	q := detailQuery + " WHERE " + where + " ORDER BY b.booking_date DESC, b.id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns the user's active bookings joined with their
// trips, newest first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	return r.listDetails(ctx, "b.user_id = ? AND b.status = 'Active'", userID)
}

// ListAll returns all active bookings across users, newest first.
// Staff/admin view.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
	return r.listDetails(ctx, "b.status = 'Active'")
}

// GetWithTrip returns one active booking joined with its trip, or
// ErrBookingNotFound.
func (r *BookingRepo) GetWithTrip(ctx context.Context, id uint64) (*BookingDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx,
		detailQuery+" WHERE b.id = ? AND b.status = 'Active'", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountForTrip returns the number of active bookings on a trip, used
// to show fill level against the 45-seat capacity.
func (r *BookingRepo) CountForTrip(ctx context.Context, tripID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE trip_id = ? AND status = 'Active'`,
		tripID).Scan(&n)
	return n, err
}

// Delete hard-removes a booking and reports whether a row actually
// went away. This is the canonical cancellation path: the seat becomes
// allocatable the moment the row is gone.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Cancel flips a booking to Cancelled. Legacy soft-delete path, kept
// for compatibility with older clients; Delete is canonical. The
// generated seat_key goes NULL on the flip, freeing the seat for
// re-allocation while the row survives in sales history.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = 'Cancelled' WHERE id = ? AND status = 'Active'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Receipt is the read-only Booking ⨝ Trip ⨝ User projection handed to
// the presentation layer; rendering (text, PDF, QR) happens outside
// the core.
type Receipt struct {
	BookingID      uint64    `json:"booking_id"`
	FromCity       string    `json:"from_city"`
	ToCity         string    `json:"to_city"`
	DepartureTime  string    `json:"departure_time"`
	ArrivalTime    string    `json:"arrival_time"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	SeatNumber     int       `json:"seat_number"`
	Price          int64     `json:"price"`
	BookingDate    time.Time `json:"booking_date"`
	AccountName    string    `json:"account_name"`
	AccountEmail   string    `json:"account_email"`
	AccountLogin   string    `json:"account_login"`
}

// GetReceipt builds the receipt projection for one booking, or
// returns ErrBookingNotFound.
func (r *BookingRepo) GetReceipt(ctx context.Context, id uint64) (*Receipt, error) {
	const q = `SELECT b.id, t.from_city, t.to_city, t.departure_time, t.arrival_time,
			b.passenger_name, b.passenger_email, b.seat_number, t.price, b.booking_date,
			u.full_name, u.email, u.username
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		JOIN users u ON u.id = b.user_id
		WHERE b.id = ?`
	var rc Receipt
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rc.BookingID, &rc.FromCity, &rc.ToCity, &rc.DepartureTime, &rc.ArrivalTime,
		&rc.PassengerName, &rc.PassengerEmail, &rc.SeatNumber, &rc.Price, &rc.BookingDate,
		&rc.AccountName, &rc.AccountEmail, &rc.AccountLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rc, nil
}
