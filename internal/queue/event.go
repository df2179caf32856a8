// Package queue defines the messages exchanged over the broker and the
// background consumer that turns them into the ticket journal.
package queue

// TicketIssuedEvent is published after a booking commits. It carries
// the full receipt so downstream consumers never have to query the
// primary database.
type TicketIssuedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	UserID        uint64 `json:"user_id"`
	TripID        uint64 `json:"trip_id"`
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	DepartureTime string `json:"departure_time"`
	SeatNumber    int    `json:"seat_number"`
	PassengerName string `json:"passenger_name"`
	Price         int64  `json:"price"`
	IssuedAt      string `json:"issued_at"`
}
