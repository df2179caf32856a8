package model

import "time"

// Booking statuses stored in bookings.status.  Hard delete is the
// canonical cancellation path; Cancelled survives as a legacy
// soft-delete state and such rows never count toward seat occupancy.
const (
	BookingActive    = "Active"
	BookingCancelled = "Cancelled"
)

// Booking reserves exactly one seat on one trip for one passenger.
// UserID is the authenticated account that made the booking; the
// passenger fields name the traveller, who need not be the account
// holder (a cashier books on behalf of walk-in customers).
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owning account (bookings.user_id, FK users.id).
//  TripID         – booked trip (bookings.trip_id, FK trips.id).
//  PassengerName  – traveller's name printed on the ticket.
//  PassengerEmail – traveller's contact email.
//  SeatNumber     – seat in [1, TotalSeats].
//  Status         – Active or Cancelled.
//  BookingDate    – when the booking was made.
type Booking struct {
	ID             uint64    // bookings.id
	UserID         uint64    // bookings.user_id
	TripID         uint64    // bookings.trip_id
	PassengerName  string    // bookings.passenger_name
	PassengerEmail string    // bookings.passenger_email
	SeatNumber     int       // bookings.seat_number
	Status         string    // bookings.status
	BookingDate    time.Time // bookings.booking_date
}
