package repository

import (
	"context"

	"rumbo/internal/domain"
)

// TripQuery narrows a trip listing at the storage level. Text matching
// against origin/destination is not part of the query: it needs
// diacritic folding and is applied in the service layer.
type TripQuery struct {
	Date     string // exact match when non-empty
	Music    bool   // each flag, when true, requires the amenity
	Pets     bool
	Children bool
	Luggage  bool
	Limit    int // 0 means unbounded; callers cap after further filtering
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// List retrieves trips matching the query, newest first.
	List(ctx context.Context, q TripQuery) ([]*domain.Trip, error)

	// ListByDriver retrieves the trips owned by a driver, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// UpdateState persists a state transition as a compare-and-set: the
	// row is only written while it still holds the from state. Returns
	// ErrNotFound when no row matches, either because the trip is gone
	// or because another transition won the race.
	UpdateState(ctx context.Context, id string, from, to domain.TripState) error

	// UpdateSeats persists a new available seat count.
	UpdateSeats(ctx context.Context, id string, availableSeats int) error
}
