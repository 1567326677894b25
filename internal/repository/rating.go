package repository

import (
	"context"

	"rumbo/internal/domain"
)

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	// Create persists a new rating. Returns ErrDuplicate if the
	// (trip, author, target) triple was already rated.
	Create(ctx context.Context, rating *domain.Rating) error

	// Exists reports whether a rating exists for the triple.
	Exists(ctx context.Context, tripID, authorID, targetID string) (bool, error)

	// ListByTarget retrieves the ratings received by a user, newest first.
	ListByTarget(ctx context.Context, targetID string) ([]*domain.Rating, error)
}
