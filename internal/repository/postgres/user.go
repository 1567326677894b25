package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, full_name, email, phone, dni, password_hash, about, vehicle, vehicle_details, rating_count, rating_avg, created_at`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, full_name, email, phone, dni, password_hash, about, vehicle, vehicle_details, rating_count, rating_avg, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.Phone,
		user.DNI,
		user.PasswordHash,
		user.About,
		user.Vehicle,
		user.VehicleDetails,
		user.RatingCount,
		user.RatingAvg,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return r.scanOne(r.q.QueryRowContext(ctx, query, email))
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET phone = $1, about = $2, vehicle = $3, vehicle_details = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		user.Phone,
		user.About,
		user.Vehicle,
		user.VehicleDetails,
		user.ID,
	)
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

// ApplyRating folds a new received score into the user's running mean.
func (r *UserRepository) ApplyRating(ctx context.Context, userID string, score int) error {
	query := `
		UPDATE users
		SET rating_avg = (rating_avg * rating_count + $1) / (rating_count + 1),
		    rating_count = rating_count + 1
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, score, userID)
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

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.DNI,
		&user.PasswordHash,
		&user.About,
		&user.Vehicle,
		&user.VehicleDetails,
		&user.RatingCount,
		&user.RatingAvg,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
