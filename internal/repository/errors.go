// Package repository defines error values that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrSeatTaken indicates that another booking claimed the
// requested seat between display and write, while ErrTripFull signals
// that auto-allocation found no free seat at all. Every expected
// outcome is a returned value; none of these are used as panics or
// control flow inside the repositories themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrTripNotFound indicates that a trip id does not exist.
var ErrTripNotFound = errors.New("trip not found")

// ErrUserNotFound indicates that a user id or username does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrBookingNotFound indicates that a booking id does not exist or is
// no longer active.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatTaken is the seat-conflict error: an active booking already
// occupies the requested (trip, seat) pair. Callers booking a manually
// chosen seat should surface it; auto-allocation retries on it.
var ErrSeatTaken = errors.New("seat already taken")

// ErrSeatOutOfRange is returned when a seat number falls outside
// [1, model.TotalSeats].
var ErrSeatOutOfRange = errors.New("seat number out of range")

// ErrTripFull is the capacity error: every seat on the trip carries an
// active booking, so allocation must refuse rather than assign an
// out-of-range number.
var ErrTripFull = errors.New("trip is fully booked")

// ErrUsernameExists is returned when registration collides with an
// existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrIntegrity is returned when the store rejects a write with a
// dangling foreign key, e.g. a booking referencing a deleted trip.
var ErrIntegrity = errors.New("integrity violation")

// MySQL server error numbers the repositories care about.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrNoReferencedRow = 1452
	mysqlErrRowIsReferenced = 1451
)

// dupKeyError reports whether err is a duplicate-entry violation of the
// named unique key. The driver includes the key name in the message,
// which is the only way MySQL identifies which constraint fired.
func dupKeyError(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlErrDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// fkError reports whether err is a foreign-key violation (either a
// write pointing at a missing parent or a delete blocked by children).
func fkError(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrNoReferencedRow || me.Number == mysqlErrRowIsReferenced
}
