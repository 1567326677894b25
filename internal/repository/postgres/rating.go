package postgres

import (
	"context"
	"database/sql"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// NewRatingRepositoryWithTx creates a rating repository using a transaction.
func NewRatingRepositoryWithTx(tx *sql.Tx) *RatingRepository {
	return &RatingRepository{q: tx}
}

// Create persists a new rating. The unique index on
// (trip_id, author_id, target_id) is the authoritative duplicate fence.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, trip_id, author_id, target_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.TripID,
		rating.AuthorID,
		rating.TargetID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// Exists reports whether a rating exists for the triple.
func (r *RatingRepository) Exists(ctx context.Context, tripID, authorID, targetID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings
			WHERE trip_id = $1 AND author_id = $2 AND target_id = $3
		)
	`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, tripID, authorID, targetID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ListByTarget retrieves the ratings received by a user, newest first.
func (r *RatingRepository) ListByTarget(ctx context.Context, targetID string) ([]*domain.Rating, error) {
	query := `
		SELECT id, trip_id, author_id, target_id, score, comment, created_at
		FROM ratings WHERE target_id = $1 ORDER BY created_at DESC, id
	`

	rows, err := r.q.QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.TripID,
			&rating.AuthorID,
			&rating.TargetID,
			&rating.Score,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rating)
	}

	return ratings, rows.Err()
}

// Ensure RatingRepository implements repository.RatingRepository.
var _ repository.RatingRepository = (*RatingRepository)(nil)
