package model

// TotalSeats is the fixed capacity of every bus on every trip.
// Seat numbers run 1..TotalSeats inclusive.
const TotalSeats = 45

// Trip statuses stored in trips.status.
const (
	TripActive    = "Active"
	TripCancelled = "Cancelled"
)

// Trip describes a scheduled bus run between two cities.  Departure
// and arrival are local clock-time strings ("HH:MM"), not full
// timestamps: the timetable repeats daily and only bookings carry a
// concrete date.  Price is the full fare in whole rubles.
//
// Fields:
//  ID            – primary key identifier.
//  FromCity      – origin city name.
//  ToCity        – destination city name.
//  DepartureTime – local departure clock time ("HH:MM").
//  ArrivalTime   – local arrival clock time ("HH:MM").
//  Price         – full fare in rubles.
//  Status        – Active or Cancelled.
type Trip struct {
	ID            uint64 // trips.id
	FromCity      string // trips.from_city
	ToCity        string // trips.to_city
	DepartureTime string // trips.departure_time
	ArrivalTime   string // trips.arrival_time
	Price         int64  // trips.price
	Status        string // trips.status
}

// Stop is one waypoint of a trip's route, ordered by arrival time.
// PriceFromStart is the cumulative fare from the trip's origin and is
// monotonically non-decreasing along the route.  Stops are exclusively
// owned by their trip and are removed when the trip is deleted.
type Stop struct {
	ID             uint64 // stops.id
	TripID         uint64 // stops.trip_id
	Name           string // stops.name
	ArrivalTime    string // stops.arrival_time
	DepartureTime  string // stops.departure_time
	PriceFromStart int64  // stops.price_from_start
}
