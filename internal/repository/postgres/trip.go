package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, driver_id, origin, destination, date, "time", available_seats, price_per_person, vehicle, music, pets, children, luggage, notes, state, created_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, driver_id, origin, destination, date, "time", available_seats, price_per_person, vehicle, music, pets, children, luggage, notes, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.DriverID,
		trip.Origin,
		trip.Destination,
		trip.Date,
		trip.Time,
		trip.AvailableSeats,
		trip.PricePerPerson,
		trip.Vehicle,
		trip.Amenities.Music,
		trip.Amenities.Pets,
		trip.Amenities.Children,
		trip.Amenities.Luggage,
		trip.Notes,
		trip.State,
		trip.CreatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a trip by ID with a row lock. Must be called
// inside a transaction; it is the serialization point for seat inventory.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`

	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// List retrieves trips matching the query, newest first.
func (r *TripRepository) List(ctx context.Context, q repository.TripQuery) ([]*domain.Trip, error) {
	var conds []string
	var args []any

	if q.Date != "" {
		args = append(args, q.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	if q.Music {
		conds = append(conds, "music")
	}
	if q.Pets {
		conds = append(conds, "pets")
	}
	if q.Children {
		conds = append(conds, "children")
	}
	if q.Luggage {
		conds = append(conds, "luggage")
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC, id"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// ListByDriver retrieves the trips owned by a driver, newest first.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// UpdateState persists a state transition. The write is a compare-and-set
// on the state column, so a stale caller cannot overwrite a transition
// that committed after its read.
func (r *TripRepository) UpdateState(ctx context.Context, id string, from, to domain.TripState) error {
	return r.exec(ctx, `UPDATE trips SET state = $1 WHERE id = $2 AND state = $3`, to, id, from)
}

// UpdateSeats persists a new available seat count.
func (r *TripRepository) UpdateSeats(ctx context.Context, id string, availableSeats int) error {
	return r.exec(ctx, `UPDATE trips SET available_seats = $1 WHERE id = $2`, availableSeats, id)
}

func (r *TripRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip
	err := row.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.Origin,
		&trip.Destination,
		&trip.Date,
		&trip.Time,
		&trip.AvailableSeats,
		&trip.PricePerPerson,
		&trip.Vehicle,
		&trip.Amenities.Music,
		&trip.Amenities.Pets,
		&trip.Amenities.Children,
		&trip.Amenities.Luggage,
		&trip.Notes,
		&trip.State,
		&trip.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &trip, nil
}

func scanTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		var trip domain.Trip
		if err := rows.Scan(
			&trip.ID,
			&trip.DriverID,
			&trip.Origin,
			&trip.Destination,
			&trip.Date,
			&trip.Time,
			&trip.AvailableSeats,
			&trip.PricePerPerson,
			&trip.Vehicle,
			&trip.Amenities.Music,
			&trip.Amenities.Pets,
			&trip.Amenities.Children,
			&trip.Amenities.Luggage,
			&trip.Notes,
			&trip.State,
			&trip.CreatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
