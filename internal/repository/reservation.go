package repository

import (
	"context"

	"rumbo/internal/domain"
)

// ReservationRepository defines the persistence operations for reservations.
type ReservationRepository interface {
	// Create persists a new reservation. Returns ErrDuplicate if the user
	// already holds a reservation on the trip.
	Create(ctx context.Context, res *domain.Reservation) error

	// ListByTrip retrieves the reservations on a trip, oldest first.
	ListByTrip(ctx context.Context, tripID string) ([]*domain.Reservation, error)

	// ListByUser retrieves the reservations held by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error)

	// ListPassengers retrieves the trip roster with display names.
	ListPassengers(ctx context.Context, tripID string) ([]*domain.Passenger, error)

	// GetByTripAndUser retrieves a user's reservation on a trip.
	GetByTripAndUser(ctx context.Context, tripID, userID string) (*domain.Reservation, error)
}
