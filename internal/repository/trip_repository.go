// Package repository contains data access logic for the booking core.
// This file covers the trip catalog: read-mostly queries over the
// timetable plus the administrative mutations. A missing trip is
// always reported as ErrTripNotFound, never as a zero-value row.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kirovavto/bus-reservation/internal/model"
)

// TripRepo manages persistence for trips.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *TripRepo) DB() *sql.DB {
	return r.db
}

const tripColumns = `id, from_city, to_city, departure_time, arrival_time, price, status`

func scanTrip(row interface{ Scan(...any) error }) (model.Trip, error) {
	var t model.Trip
	err := row.Scan(&t.ID, &t.FromCity, &t.ToCity, &t.DepartureTime, &t.ArrivalTime, &t.Price, &t.Status)
	return t, err
}

// List returns every trip ordered by departure time ascending.
func (r *TripRepo) List(ctx context.Context) ([]model.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY departure_time ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a trip by its ID.  It returns ErrTripNotFound if
// there is no matching row.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`
	t, err := scanTrip(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Search returns trips whose endpoints contain the given substrings,
// ordered by departure time. Matching is case-sensitive by contract:
// city names in the timetable are proper nouns with fixed
// capitalization. The travel date shown to the caller does not filter
// anything here — trips are daily and not date-scoped in storage —
// so the query surface deliberately takes no date parameter.
func (r *TripRepo) Search(ctx context.Context, fromCity, toCity string) ([]model.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips
		WHERE from_city LIKE CONCAT('%', ?, '%') COLLATE utf8mb4_bin
		  AND to_city LIKE CONCAT('%', ?, '%') COLLATE utf8mb4_bin
		ORDER BY departure_time ASC`
	rows, err := r.db.QueryContext(ctx, q, fromCity, toCity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new trip and assigns the generated ID back to the
// struct. Status defaults to Active in the DB when left empty.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	if t.Status == "" {
		t.Status = model.TripActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (from_city, to_city, departure_time, arrival_time, price, status) VALUES (?,?,?,?,?,?)`,
		t.FromCity, t.ToCity, t.DepartureTime, t.ArrivalTime, t.Price, t.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update rewrites the mutable trip fields.  The identity fields (id)
// are never reused or rewritten.  Returns ErrTripNotFound when the id
// does not exist.
func (r *TripRepo) Update(ctx context.Context, t *model.Trip) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET from_city=?, to_city=?, departure_time=?, arrival_time=?, price=?, status=? WHERE id=?`,
		t.FromCity, t.ToCity, t.DepartureTime, t.ArrivalTime, t.Price, t.Status, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "no change": an update that sets
		// identical values also reports zero affected rows.
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a trip.  The stops FK cascades, so every stop of the
// route disappears with it.  Bookings intentionally do not cascade:
// MySQL rejects the delete while active tickets reference the trip,
// which surfaces as ErrIntegrity instead of silently orphaning sales.
func (r *TripRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id=?`, id)
	if err != nil {
		if fkError(err) {
			return ErrIntegrity
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTripNotFound
	}
	return nil
}
