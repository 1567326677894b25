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

// reservationLockTTL bounds how long a trip's seat inventory stays
// locked if a request dies mid-flight. The SQL row lock remains the
// hard guarantee; the Redis lock only bounds contention.
const reservationLockTTL = 10 * time.Second

// ReservationService binds passengers to trips while protecting seat
// inventory.
type ReservationService struct {
	txStore         TxStore
	tripRepo        repository.TripRepository
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository
	lockStore       redis.LockStoreInterface
	cacheStore      *redis.CacheStore
	notifier        Notifier
	collector       *metrics.Collector
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	txStore TxStore,
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	notifier Notifier,
	collector *metrics.Collector,
) *ReservationService {
	return &ReservationService{
		txStore:         txStore,
		tripRepo:        tripRepo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		lockStore:       lockStore,
		cacheStore:      cacheStore,
		notifier:        notifier,
		collector:       collector,
	}
}

// ReserveRequest contains the parameters for reserving seats.
type ReserveRequest struct {
	TripID string
	UserID string
	Seats  int
}

// Reserve claims seats on a pending trip. The check-decrement-insert
// runs inside one transaction with the trip row locked, so concurrent
// reservations can never oversell; available seats only ever decrease
// and never go negative.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (*domain.Reservation, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Seats < 1 {
		return nil, ErrInvalidSeatsRequested
	}

	// The passenger must be a registered user.
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	// Cheap prechecks on an unlocked read; every check is repeated
	// against the locked row before writing.
	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReservable(trip, req); err != nil {
		return nil, err
	}

	if _, err := s.reservationRepo.GetByTripAndUser(ctx, req.TripID, req.UserID); err == nil {
		return nil, ErrAlreadyReserved
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireTripLock(ctx, req.TripID, reservationLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			s.rejected("locked")
			return nil, ErrTripBusy
		}
		defer func() { _ = s.lockStore.ReleaseTripLock(ctx, req.TripID) }()
	}

	reservation, remaining, err := s.reserveTx(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateTrip(ctx, req.TripID)
	}
	if s.collector != nil {
		s.collector.ReservationsAccepted.Inc()
	}
	// The event carries the seat count the transaction committed, not
	// the precheck snapshot.
	trip.AvailableSeats = remaining
	if s.notifier != nil {
		_ = s.notifier.NotifyReservationCreated(ctx, trip, reservation)
	}

	return reservation, nil
}

// reserveTx is the critical section: re-read the trip with a row lock,
// re-check, decrement, and record the reservation atomically. It
// returns the reservation plus the seat count the commit left behind.
func (s *ReservationService) reserveTx(ctx context.Context, req ReserveRequest) (*domain.Reservation, int, error) {
	tx, err := s.txStore.BeginReservationTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var trip *domain.Trip
	trip, err = tx.TripForUpdate(ctx, req.TripID)
	if err != nil {
		return nil, 0, err
	}

	if err = s.checkReservable(trip, req); err != nil {
		return nil, 0, err
	}

	reservation := &domain.Reservation{
		ID:        uuid.New().String(),
		TripID:    req.TripID,
		UserID:    req.UserID,
		Seats:     req.Seats,
		CreatedAt: time.Now(),
	}

	if err = tx.CreateReservation(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = ErrAlreadyReserved
		}
		return nil, 0, err
	}

	remaining := trip.AvailableSeats - req.Seats
	if err = tx.UpdateSeats(ctx, req.TripID, remaining); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}

	return reservation, remaining, nil
}

// checkReservable holds the seat-inventory and state rules shared by
// the precheck and the locked re-check.
func (s *ReservationService) checkReservable(trip *domain.Trip, req ReserveRequest) error {
	if trip.DriverID == req.UserID {
		return ErrDriverOwnTrip
	}
	if trip.State != domain.TripStatePending {
		return ErrTripNotPending
	}
	if req.Seats > trip.AvailableSeats {
		s.rejected("capacity")
		return ErrNotEnoughSeats
	}
	return nil
}

// ListPassengers returns the roster of a trip with display names, in
// reservation order.
func (s *ReservationService) ListPassengers(ctx context.Context, tripID string) ([]*domain.Passenger, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	// Distinguish an unknown trip from a trip with no passengers.
	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		return nil, err
	}

	return s.reservationRepo.ListPassengers(ctx, tripID)
}

func (s *ReservationService) rejected(reason string) {
	if s.collector != nil {
		s.collector.ReservationsRejected.WithLabelValues(reason).Inc()
	}
}
