package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"rumbo/internal/domain"
	"rumbo/internal/metrics"
	"rumbo/internal/redis"
	"rumbo/internal/repository"
)

// TripService owns trip records and enforces the lifecycle state machine.
type TripService struct {
	tripRepo        repository.TripRepository
	userRepo        repository.UserRepository
	reservationRepo repository.ReservationRepository
	cacheStore      *redis.CacheStore
	notifier        Notifier
	collector       *metrics.Collector
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	reservationRepo repository.ReservationRepository,
	cacheStore *redis.CacheStore,
	notifier Notifier,
	collector *metrics.Collector,
) *TripService {
	return &TripService{
		tripRepo:        tripRepo,
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		cacheStore:      cacheStore,
		notifier:        notifier,
		collector:       collector,
	}
}

// CreateTripRequest contains the parameters for publishing a trip.
type CreateTripRequest struct {
	DriverID       string
	Origin         string
	Destination    string
	Date           string
	Time           string
	AvailableSeats int
	PricePerPerson float64
	Vehicle        string
	Amenities      domain.Amenities
	Notes          string
}

// CreateTrip publishes a new trip in the pending state.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, ErrMissingRoute
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return nil, ErrMissingSchedule
	}
	if req.AvailableSeats < 1 {
		return nil, ErrInvalidSeatCount
	}
	if req.PricePerPerson < 0 {
		return nil, ErrInvalidPrice
	}

	// The driver must be a registered user.
	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	vehicle := req.Vehicle
	if vehicle == "" {
		vehicle = driver.Vehicle
	}

	trip := &domain.Trip{
		ID:             uuid.New().String(),
		DriverID:       req.DriverID,
		Origin:         strings.TrimSpace(req.Origin),
		Destination:    strings.TrimSpace(req.Destination),
		Date:           req.Date,
		Time:           req.Time,
		AvailableSeats: req.AvailableSeats,
		PricePerPerson: req.PricePerPerson,
		Vehicle:        vehicle,
		Amenities:      req.Amenities,
		Notes:          req.Notes,
		State:          domain.TripStatePending,
		CreatedAt:      time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.TripsCreated.Inc()
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyTripCreated(ctx, trip)
	}

	return trip, nil
}

// StartTrip transitions a pending trip to in_progress. Only the owning
// driver may start a trip.
func (s *TripService) StartTrip(ctx context.Context, tripID, requesterID string) (*domain.Trip, error) {
	trip, err := s.authorizeTransition(ctx, tripID, requesterID)
	if err != nil {
		return nil, err
	}

	if !trip.State.CanTransitionTo(domain.TripStateInProgress) {
		return nil, ErrTripNotPending
	}

	// Compare-and-set: if another transition committed after our read,
	// the write matches zero rows and the trip keeps its newer state.
	if err := s.tripRepo.UpdateState(ctx, trip.ID, domain.TripStatePending, domain.TripStateInProgress); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotPending
		}
		return nil, err
	}
	trip.State = domain.TripStateInProgress

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateTrip(ctx, trip.ID)
	}
	if s.collector != nil {
		s.collector.TripsStarted.Inc()
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyTripStarted(ctx, trip)
	}

	return trip, nil
}

// CompleteTrip transitions an in_progress trip to completed, the
// terminal state.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, requesterID string) (*domain.Trip, error) {
	trip, err := s.authorizeTransition(ctx, tripID, requesterID)
	if err != nil {
		return nil, err
	}

	if !trip.State.CanTransitionTo(domain.TripStateCompleted) {
		return nil, ErrTripNotInProgress
	}

	if err := s.tripRepo.UpdateState(ctx, trip.ID, domain.TripStateInProgress, domain.TripStateCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTripNotInProgress
		}
		return nil, err
	}
	trip.State = domain.TripStateCompleted

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateTrip(ctx, trip.ID)
	}
	if s.collector != nil {
		s.collector.TripsCompleted.Inc()
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyTripCompleted(ctx, trip)
	}

	return trip, nil
}

func (s *TripService) authorizeTransition(ctx context.Context, tripID, requesterID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if requesterID == "" {
		return nil, ErrInvalidUserID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.DriverID != requesterID {
		return nil, ErrNotTripDriver
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID, serving from cache when possible.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTrip(ctx, tripID); err == nil && cached != nil {
			return fromCachedTrip(cached), nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetTrip(ctx, toCachedTrip(trip))
	}

	return trip, nil
}

// tripListLimit caps a listing response. The cap is applied after the
// text match so that matches past the first page are never dropped.
const tripListLimit = 200

// ListTrips returns a fresh snapshot of trips matching the filter,
// newest first. Date and amenity constraints narrow the query; the
// diacritic-insensitive text match runs over the snapshot.
func (s *TripService) ListTrips(ctx context.Context, filter TripFilter) ([]*domain.Trip, error) {
	trips, err := s.tripRepo.List(ctx, repository.TripQuery{
		Date:     filter.Date,
		Music:    filter.Amenities.Music,
		Pets:     filter.Amenities.Pets,
		Children: filter.Amenities.Children,
		Luggage:  filter.Amenities.Luggage,
	})
	if err != nil {
		return nil, err
	}

	matched := FilterTrips(trips, filter)
	if len(matched) > tripListLimit {
		matched = matched[:tripListLimit]
	}

	return matched, nil
}

// UserTrip is a trip seen from one user's perspective: either they
// drive it, or they hold a reservation on it.
type UserTrip struct {
	Trip        *domain.Trip
	IsPassenger bool
	Seats       int // seats reserved when IsPassenger
}

// ListTripsForUser returns the trips a user drives plus the trips they
// ride on, newest first within each group.
func (s *TripService) ListTripsForUser(ctx context.Context, userID string) ([]*UserTrip, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	driven, err := s.tripRepo.ListByDriver(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*UserTrip
	for _, trip := range driven {
		out = append(out, &UserTrip{Trip: trip})
	}

	reservations, err := s.reservationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, res := range reservations {
		trip, err := s.tripRepo.GetByID(ctx, res.TripID)
		if err != nil {
			return nil, err
		}
		out = append(out, &UserTrip{Trip: trip, IsPassenger: true, Seats: res.Seats})
	}

	return out, nil
}

func toCachedTrip(trip *domain.Trip) *redis.CachedTrip {
	return &redis.CachedTrip{
		ID:             trip.ID,
		DriverID:       trip.DriverID,
		Origin:         trip.Origin,
		Destination:    trip.Destination,
		Date:           trip.Date,
		Time:           trip.Time,
		AvailableSeats: trip.AvailableSeats,
		PricePerPerson: trip.PricePerPerson,
		Vehicle:        trip.Vehicle,
		Music:          trip.Amenities.Music,
		Pets:           trip.Amenities.Pets,
		Children:       trip.Amenities.Children,
		Luggage:        trip.Amenities.Luggage,
		Notes:          trip.Notes,
		State:          string(trip.State),
		CreatedAt:      trip.CreatedAt,
	}
}

func fromCachedTrip(cached *redis.CachedTrip) *domain.Trip {
	return &domain.Trip{
		ID:             cached.ID,
		DriverID:       cached.DriverID,
		Origin:         cached.Origin,
		Destination:    cached.Destination,
		Date:           cached.Date,
		Time:           cached.Time,
		AvailableSeats: cached.AvailableSeats,
		PricePerPerson: cached.PricePerPerson,
		Vehicle:        cached.Vehicle,
		Amenities: domain.Amenities{
			Music:    cached.Music,
			Pets:     cached.Pets,
			Children: cached.Children,
			Luggage:  cached.Luggage,
		},
		Notes:     cached.Notes,
		State:     domain.TripState(cached.State),
		CreatedAt: cached.CreatedAt,
	}
}
