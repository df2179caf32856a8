package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SalesRepo computes time-windowed sales aggregates over bookings
// joined with trips. Aggregates deliberately ignore booking status:
// the sales figures describe whatever rows exist in the ledger at
// query time, so a legacy soft-cancelled ticket still counts as a
// historical sale while a hard-deleted one does not.
type SalesRepo struct {
	db *sql.DB
}

// NewSalesRepo constructs a SalesRepo given a DB handle.
func NewSalesRepo(db *sql.DB) *SalesRepo {
	return &SalesRepo{db: db}
}

// SalesTotals is a (count, revenue) pair for a window. Revenue is the
// sum of the trip price of every counted booking, in rubles.
type SalesTotals struct {
	Count   int   `json:"count"`
	Revenue int64 `json:"revenue"`
}

const salesQuery = `SELECT COUNT(*), COALESCE(SUM(t.price), 0)
	FROM bookings b
	JOIN trips t ON t.id = b.trip_id`

// SalesForDay returns the totals for one calendar day (UTC). Pass the
// zero time for today.
func (r *SalesRepo) SalesForDay(ctx context.Context, day time.Time) (SalesTotals, error) {
	if day.IsZero() {
		day = time.Now().UTC()
	}
	var st SalesTotals
	err := r.db.QueryRowContext(ctx,
		salesQuery+` WHERE DATE(b.booking_date) = ?`,
		day.UTC().Format("2006-01-02")).Scan(&st.Count, &st.Revenue)
	return st, err
}

// SalesForWindow returns the totals for the trailing window of the
// given number of days, inclusive of today.
func (r *SalesRepo) SalesForWindow(ctx context.Context, days int) (SalesTotals, error) {
	if days < 1 {
		days = 1
	}
	var st SalesTotals
	err := r.db.QueryRowContext(ctx,
		salesQuery+` WHERE b.booking_date >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL ? DAY)`,
		days).Scan(&st.Count, &st.Revenue)
	return st, err
}

// RouteStat names the (from, to) pair with its booking count.
type RouteStat struct {
	FromCity string `json:"from_city"`
	ToCity   string `json:"to_city"`
	Count    int    `json:"count"`
}

// MostPopularRoute returns the route with the highest booking count in
// the trailing window. Ties break on route name so repeated queries
// agree with each other. The second return value is false when the
// window holds no bookings at all.
func (r *SalesRepo) MostPopularRoute(ctx context.Context, days int) (RouteStat, bool, error) {
	if days < 1 {
		days = 1
	}
	const q = `SELECT t.from_city, t.to_city, COUNT(*) AS cnt
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.booking_date >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL ? DAY)
		GROUP BY t.from_city, t.to_city
		ORDER BY cnt DESC, t.from_city ASC, t.to_city ASC
		LIMIT 1`
	var rs RouteStat
	err := r.db.QueryRowContext(ctx, q, days).Scan(&rs.FromCity, &rs.ToCity, &rs.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return RouteStat{}, false, nil
	}
	if err != nil {
		return RouteStat{}, false, err
	}
	return rs, true, nil
}

// Stats bundles the whole-table scalar aggregates for the staff
// dashboard.
type Stats struct {
	TotalBookings  int   `json:"total_bookings"`
	ActiveBookings int   `json:"active_bookings"`
	TotalRevenue   int64 `json:"total_revenue"`
	Users          int   `json:"users"`
	Trips          int   `json:"trips"`
}

// TotalBookingsCount counts every booking row regardless of status.
func (r *SalesRepo) TotalBookingsCount(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM bookings`)
}

// ActiveBookingsCount counts bookings with status Active.
func (r *SalesRepo) ActiveBookingsCount(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM bookings WHERE status = 'Active'`)
}

// TotalRevenue sums the trip price over every booking row.
func (r *SalesRepo) TotalRevenue(ctx context.Context) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(t.price), 0) FROM bookings b JOIN trips t ON t.id = b.trip_id`).Scan(&v)
	return v, err
}

// UsersCount counts registered accounts.
func (r *SalesRepo) UsersCount(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM users`)
}

// TripsCount counts timetable entries.
func (r *SalesRepo) TripsCount(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM trips`)
}

// GetStats collects all scalar aggregates in one call.
func (r *SalesRepo) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.TotalBookings, err = r.TotalBookingsCount(ctx); err != nil {
		return s, err
	}
	if s.ActiveBookings, err = r.ActiveBookingsCount(ctx); err != nil {
		return s, err
	}
	if s.TotalRevenue, err = r.TotalRevenue(ctx); err != nil {
		return s, err
	}
	if s.Users, err = r.UsersCount(ctx); err != nil {
		return s, err
	}
	if s.Trips, err = r.TripsCount(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (r *SalesRepo) scalarInt(ctx context.Context, q string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}
