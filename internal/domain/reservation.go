package domain

import "time"

// Reservation is a passenger's claim on a number of seats within a trip.
// Immutable once created.
type Reservation struct {
	ID        string
	TripID    string
	UserID    string
	Seats     int
	CreatedAt time.Time
}

// Passenger is a roster entry for a trip: the reservation joined with
// the passenger's display name.
type Passenger struct {
	UserID string
	Name   string
	Seats  int
}
