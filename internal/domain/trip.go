package domain

import "time"

// TripState represents the lifecycle state of a trip.
type TripState string

const (
	TripStatePending    TripState = "pending"
	TripStateInProgress TripState = "in_progress"
	TripStateCompleted  TripState = "completed"
)

// CanTransitionTo reports whether the state machine allows moving from s
// to next. Transitions are monotonic: pending → in_progress → completed,
// with no reverse edges and no skipping.
func (s TripState) CanTransitionTo(next TripState) bool {
	switch s {
	case TripStatePending:
		return next == TripStateInProgress
	case TripStateInProgress:
		return next == TripStateCompleted
	default:
		return false
	}
}

// Amenities are the boolean trip attributes passengers filter on.
type Amenities struct {
	Music    bool
	Pets     bool
	Children bool
	Luggage  bool
}

// Trip represents a scheduled ride offered by a driver with a fixed
// seat capacity and a price per person.
type Trip struct {
	ID             string
	DriverID       string
	Origin         string
	Destination    string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	AvailableSeats int
	PricePerPerson float64
	Vehicle        string
	Amenities      Amenities
	Notes          string
	State          TripState
	CreatedAt      time.Time
}
