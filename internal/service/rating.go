package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rumbo/internal/domain"
	"rumbo/internal/metrics"
	"rumbo/internal/redis"
	"rumbo/internal/repository"
)

// Role selects which side of their completed trips a user wants to rate.
type Role string

const (
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

// RatingService records feedback between the two sides of a completed
// trip and prevents re-rating.
type RatingService struct {
	txStore         TxStore
	ratingRepo      repository.RatingRepository
	tripRepo        repository.TripRepository
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository
	cacheStore      *redis.CacheStore
	notifier        Notifier
	collector       *metrics.Collector
}

// NewRatingService creates a new RatingService.
func NewRatingService(
	txStore TxStore,
	ratingRepo repository.RatingRepository,
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	cacheStore *redis.CacheStore,
	notifier Notifier,
	collector *metrics.Collector,
) *RatingService {
	return &RatingService{
		txStore:         txStore,
		ratingRepo:      ratingRepo,
		tripRepo:        tripRepo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		cacheStore:      cacheStore,
		notifier:        notifier,
		collector:       collector,
	}
}

// SubmitRatingRequest contains the parameters for submitting a rating.
type SubmitRatingRequest struct {
	TripID   string
	AuthorID string
	TargetID string
	Score    int
	Comment  string
}

// SubmitRating records a rating for a completed, shared trip. The
// target's aggregate (arithmetic running mean) is updated in the same
// transaction; the unique index on (trip, author, target) makes the
// duplicate rejection hold even across concurrent submissions.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (*domain.Rating, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.AuthorID == "" || req.TargetID == "" {
		return nil, ErrInvalidUserID
	}
	if req.AuthorID == req.TargetID {
		return nil, ErrSelfRating
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, ErrInvalidScore
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.State != domain.TripStateCompleted {
		return nil, ErrTripNotCompleted
	}

	if err := s.checkParticipants(ctx, trip, req.AuthorID, req.TargetID); err != nil {
		return nil, err
	}

	exists, err := s.ratingRepo.Exists(ctx, req.TripID, req.AuthorID, req.TargetID)
	if err != nil {
		return nil, err
	}
	if exists {
		if s.collector != nil {
			s.collector.RatingsRejected.Inc()
		}
		return nil, ErrAlreadyRated
	}

	rating, err := s.submitTx(ctx, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyRated) && s.collector != nil {
			s.collector.RatingsRejected.Inc()
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateUser(ctx, req.TargetID)
	}
	if s.collector != nil {
		s.collector.RatingsSubmitted.Inc()
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyRatingSubmitted(ctx, rating)
	}

	return rating, nil
}

// submitTx appends the rating and folds it into the target's aggregate
// atomically.
func (s *RatingService) submitTx(ctx context.Context, req SubmitRatingRequest) (*domain.Rating, error) {
	tx, err := s.txStore.BeginRatingTx(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		TripID:    req.TripID,
		AuthorID:  req.AuthorID,
		TargetID:  req.TargetID,
		Score:     req.Score,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	if err = tx.CreateRating(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = ErrAlreadyRated
		}
		return nil, err
	}

	if err = tx.ApplyRating(ctx, req.TargetID, req.Score); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return rating, nil
}

// checkParticipants verifies that author and target are the driver and
// one reserved passenger of the trip, on opposite sides.
func (s *RatingService) checkParticipants(ctx context.Context, trip *domain.Trip, authorID, targetID string) error {
	var passengerID string
	switch {
	case trip.DriverID == authorID:
		passengerID = targetID
	case trip.DriverID == targetID:
		passengerID = authorID
	default:
		return ErrNotTripParticipant
	}

	_, err := s.reservationRepo.GetByTripAndUser(ctx, trip.ID, passengerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotTripParticipant
	}
	return err
}

// Counterpart identifies the user on the other side of a pending rating.
type Counterpart struct {
	UserID string
	Name   string
}

// PendingRating is a completed trip with the counterparts the user has
// not rated yet.
type PendingRating struct {
	Trip         *domain.Trip
	Counterparts []Counterpart
}

// PendingRatings lists what a user still owes feedback on. For
// role=passenger: completed trips ridden whose driver is unrated. For
// role=driver: completed trips driven, with the unrated passengers.
func (s *RatingService) PendingRatings(ctx context.Context, userID string, role Role) ([]*PendingRating, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	switch role {
	case RolePassenger:
		return s.pendingAsPassenger(ctx, userID)
	case RoleDriver:
		return s.pendingAsDriver(ctx, userID)
	default:
		return nil, ErrInvalidRole
	}
}

func (s *RatingService) pendingAsPassenger(ctx context.Context, userID string) ([]*PendingRating, error) {
	reservations, err := s.reservationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*PendingRating
	for _, res := range reservations {
		trip, err := s.tripRepo.GetByID(ctx, res.TripID)
		if err != nil {
			return nil, err
		}
		if trip.State != domain.TripStateCompleted {
			continue
		}

		rated, err := s.ratingRepo.Exists(ctx, trip.ID, userID, trip.DriverID)
		if err != nil {
			return nil, err
		}
		if rated {
			continue
		}

		driver, err := s.userRepo.GetByID(ctx, trip.DriverID)
		if err != nil {
			return nil, err
		}

		out = append(out, &PendingRating{
			Trip:         trip,
			Counterparts: []Counterpart{{UserID: driver.ID, Name: driver.FullName}},
		})
	}

	return out, nil
}

func (s *RatingService) pendingAsDriver(ctx context.Context, userID string) ([]*PendingRating, error) {
	trips, err := s.tripRepo.ListByDriver(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*PendingRating
	for _, trip := range trips {
		if trip.State != domain.TripStateCompleted {
			continue
		}

		passengers, err := s.reservationRepo.ListPassengers(ctx, trip.ID)
		if err != nil {
			return nil, err
		}

		var unrated []Counterpart
		for _, p := range passengers {
			rated, err := s.ratingRepo.Exists(ctx, trip.ID, userID, p.UserID)
			if err != nil {
				return nil, err
			}
			if !rated {
				unrated = append(unrated, Counterpart{UserID: p.UserID, Name: p.Name})
			}
		}

		if len(unrated) > 0 {
			out = append(out, &PendingRating{Trip: trip, Counterparts: unrated})
		}
	}

	return out, nil
}

// RatingsForUser returns the ratings a user has received, newest first,
// along with the user record carrying the aggregate.
func (s *RatingService) RatingsForUser(ctx context.Context, userID string) (*domain.User, []*domain.Rating, error) {
	if userID == "" {
		return nil, nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ratings, err := s.ratingRepo.ListByTarget(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return user, ratings, nil
}
