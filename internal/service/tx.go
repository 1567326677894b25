package service

import (
	"context"
	"database/sql"

	"rumbo/internal/domain"
	"rumbo/internal/repository/postgres"
)

// ReservationTx is one open seat-reservation transaction: a row-locked
// trip read, the reservation insert, and the seat decrement. It ends in
// exactly one Commit or Rollback.
type ReservationTx interface {
	TripForUpdate(ctx context.Context, tripID string) (*domain.Trip, error)
	CreateReservation(ctx context.Context, reservation *domain.Reservation) error
	UpdateSeats(ctx context.Context, tripID string, availableSeats int) error
	Commit() error
	Rollback() error
}

// RatingTx is one open rating transaction: the rating insert plus the
// target's aggregate update.
type RatingTx interface {
	CreateRating(ctx context.Context, rating *domain.Rating) error
	ApplyRating(ctx context.Context, userID string, score int) error
	Commit() error
	Rollback() error
}

// TxStore opens the transactions the services run their critical
// sections on.
type TxStore interface {
	BeginReservationTx(ctx context.Context) (ReservationTx, error)
	BeginRatingTx(ctx context.Context) (RatingTx, error)
}

// SQLTxStore implements TxStore on database/sql with the
// transaction-scoped PostgreSQL repositories.
type SQLTxStore struct {
	db *sql.DB
}

// NewSQLTxStore creates a new SQLTxStore.
func NewSQLTxStore(db *sql.DB) *SQLTxStore {
	return &SQLTxStore{db: db}
}

func (s *SQLTxStore) BeginReservationTx(ctx context.Context) (ReservationTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlReservationTx{
		tx:           tx,
		trips:        postgres.NewTripRepositoryWithTx(tx),
		reservations: postgres.NewReservationRepositoryWithTx(tx),
	}, nil
}

func (s *SQLTxStore) BeginRatingTx(ctx context.Context) (RatingTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlRatingTx{
		tx:      tx,
		ratings: postgres.NewRatingRepositoryWithTx(tx),
		users:   postgres.NewUserRepositoryWithTx(tx),
	}, nil
}

type sqlReservationTx struct {
	tx           *sql.Tx
	trips        *postgres.TripRepository
	reservations *postgres.ReservationRepository
}

func (t *sqlReservationTx) TripForUpdate(ctx context.Context, tripID string) (*domain.Trip, error) {
	return t.trips.GetByIDForUpdate(ctx, tripID)
}

func (t *sqlReservationTx) CreateReservation(ctx context.Context, reservation *domain.Reservation) error {
	return t.reservations.Create(ctx, reservation)
}

func (t *sqlReservationTx) UpdateSeats(ctx context.Context, tripID string, availableSeats int) error {
	return t.trips.UpdateSeats(ctx, tripID, availableSeats)
}

func (t *sqlReservationTx) Commit() error   { return t.tx.Commit() }
func (t *sqlReservationTx) Rollback() error { return t.tx.Rollback() }

type sqlRatingTx struct {
	tx      *sql.Tx
	ratings *postgres.RatingRepository
	users   *postgres.UserRepository
}

func (t *sqlRatingTx) CreateRating(ctx context.Context, rating *domain.Rating) error {
	return t.ratings.Create(ctx, rating)
}

func (t *sqlRatingTx) ApplyRating(ctx context.Context, userID string, score int) error {
	return t.users.ApplyRating(ctx, userID, score)
}

func (t *sqlRatingTx) Commit() error   { return t.tx.Commit() }
func (t *sqlRatingTx) Rollback() error { return t.tx.Rollback() }

// Ensure SQLTxStore implements TxStore.
var _ TxStore = (*SQLTxStore)(nil)
