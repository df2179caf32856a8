package repository

import (
	"context"
	"database/sql"

	"github.com/kirovavto/bus-reservation/internal/model"
)

// StopRepo encapsulates database operations for stops.  Stops are
// exclusively owned by their trip: they are bulk-created with it and
// the trips FK cascade removes them when the trip goes away.
type StopRepo struct {
	db *sql.DB
}

// NewStopRepo constructs a StopRepo given a DB handle.
func NewStopRepo(db *sql.DB) *StopRepo {
	return &StopRepo{db: db}
}

// ListByTrip returns the trip's stops ordered by arrival time
// ascending.  An unknown trip id yields an empty slice, not an error:
// the catalog treats "no stops" and "no such trip" identically here
// because the route view renders the same either way.
func (r *StopRepo) ListByTrip(ctx context.Context, tripID uint64) ([]model.Stop, error) {
	const q = `SELECT id, trip_id, name, arrival_time, departure_time, price_from_start
		FROM stops WHERE trip_id = ? ORDER BY arrival_time ASC`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Stop, 0)
	for rows.Next() {
		var s model.Stop
		if err := rows.Scan(&s.ID, &s.TripID, &s.Name, &s.ArrivalTime, &s.DepartureTime, &s.PriceFromStart); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBulk inserts multiple stops for one trip in a single
// statement. Passing an empty slice has no effect and returns nil.
// A dangling trip id is rejected by the FK and reported as
// ErrIntegrity.
func (r *StopRepo) CreateBulk(ctx context.Context, tripID uint64, stops []model.Stop) error {
	if len(stops) == 0 {
		return nil
	}
	query := `INSERT INTO stops (trip_id, name, arrival_time, departure_time, price_from_start) VALUES `
	args := make([]interface{}, 0, len(stops)*5)
	for i, s := range stops {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, tripID, s.Name, s.ArrivalTime, s.DepartureTime, s.PriceFromStart)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if fkError(err) {
			return ErrIntegrity
		}
		return err
	}
	return nil
}

// DeleteByTrip removes every stop of a trip without touching the trip
// itself. Used by admin tooling when replacing a route wholesale.
func (r *StopRepo) DeleteByTrip(ctx context.Context, tripID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stops WHERE trip_id = ?`, tripID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
