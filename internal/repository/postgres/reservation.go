package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
)

// ReservationRepository is a PostgreSQL implementation of
// repository.ReservationRepository.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

// Create persists a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `
		INSERT INTO reservations (id, trip_id, user_id, seats, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		res.ID,
		res.TripID,
		res.UserID,
		res.Seats,
		res.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// ListByTrip retrieves the reservations on a trip, oldest first.
func (r *ReservationRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, user_id, seats, created_at
		FROM reservations WHERE trip_id = $1 ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListByUser retrieves the reservations held by a user, newest first.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, user_id, seats, created_at
		FROM reservations WHERE user_id = $1 ORDER BY created_at DESC, id
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListPassengers retrieves the trip roster with display names.
func (r *ReservationRepository) ListPassengers(ctx context.Context, tripID string) ([]*domain.Passenger, error) {
	query := `
		SELECT res.user_id, u.full_name, res.seats
		FROM reservations res
		JOIN users u ON u.id = res.user_id
		WHERE res.trip_id = $1
		ORDER BY res.created_at, res.id
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []*domain.Passenger
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.UserID, &p.Name, &p.Seats); err != nil {
			return nil, err
		}
		passengers = append(passengers, &p)
	}

	return passengers, rows.Err()
}

// GetByTripAndUser retrieves a user's reservation on a trip.
func (r *ReservationRepository) GetByTripAndUser(ctx context.Context, tripID, userID string) (*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, user_id, seats, created_at
		FROM reservations WHERE trip_id = $1 AND user_id = $2
	`

	var res domain.Reservation
	err := r.q.QueryRowContext(ctx, query, tripID, userID).Scan(
		&res.ID,
		&res.TripID,
		&res.UserID,
		&res.Seats,
		&res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.TripID,
			&res.UserID,
			&res.Seats,
			&res.CreatedAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}

	return reservations, rows.Err()
}

// Ensure ReservationRepository implements repository.ReservationRepository.
var _ repository.ReservationRepository = (*ReservationRepository)(nil)
