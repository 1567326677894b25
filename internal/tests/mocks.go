package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
	"rumbo/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount      int32
	ApplyRatingCallCount int32

	// Error injection
	CreateError      error
	ApplyRatingError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Phone = user.Phone
	stored.About = user.About
	stored.Vehicle = user.Vehicle
	stored.VehicleDetails = user.VehicleDetails
	return nil
}

func (m *MockUserRepository) ApplyRating(ctx context.Context, userID string, score int) error {
	atomic.AddInt32(&m.ApplyRatingCallCount, 1)
	if m.ApplyRatingError != nil {
		return m.ApplyRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.RatingAvg = (user.RatingAvg*float64(user.RatingCount) + float64(score)) / float64(user.RatingCount+1)
	user.RatingCount++
	return nil
}

// GetUser returns the user by ID (for test assertions).
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount      int32
	UpdateStateCallCount int32
	UpdateSeatsCallCount int32

	// Error injection
	CreateError      error
	UpdateStateError error
	UpdateSeatsError error

	// UpdateStateHook runs before the state write, outside the lock.
	// Tests use it to interleave a competing transition.
	UpdateStateHook func()
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) List(ctx context.Context, q repository.TripQuery) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if q.Date != "" && t.Date != q.Date {
			continue
		}
		if q.Music && !t.Amenities.Music {
			continue
		}
		if q.Pets && !t.Amenities.Pets {
			continue
		}
		if q.Children && !t.Amenities.Children {
			continue
		}
		if q.Luggage && !t.Amenities.Luggage {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.DriverID == driverID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) UpdateState(ctx context.Context, id string, from, to domain.TripState) error {
	atomic.AddInt32(&m.UpdateStateCallCount, 1)
	if m.UpdateStateHook != nil {
		m.UpdateStateHook()
	}
	if m.UpdateStateError != nil {
		return m.UpdateStateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok || trip.State != from {
		return repository.ErrNotFound
	}
	trip.State = to
	return nil
}

func (m *MockTripRepository) UpdateSeats(ctx context.Context, id string, availableSeats int) error {
	atomic.AddInt32(&m.UpdateSeatsCallCount, 1)
	if m.UpdateSeatsError != nil {
		return m.UpdateSeatsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.AvailableSeats = availableSeats
	return nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of ReservationRepository.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation
	names        map[string]string // user ID -> display name for rosters

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[string]*domain.Reservation),
		names:        make(map[string]string),
	}
}

// AddReservation adds a reservation to the mock repository.
func (m *MockReservationRepository) AddReservation(res *domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[res.ID] = res
}

// SetName records a display name for roster lookups.
func (m *MockReservationRepository) SetName(userID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[userID] = name
}

func (m *MockReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.TripID == res.TripID && r.UserID == res.UserID {
			return repository.ErrDuplicate
		}
	}
	m.reservations[res.ID] = res
	return nil
}

func (m *MockReservationRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Reservation
	for _, r := range m.reservations {
		if r.TripID == tripID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockReservationRepository) ListPassengers(ctx context.Context, tripID string) ([]*domain.Passenger, error) {
	reservations, err := m.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Passenger
	for _, r := range reservations {
		result = append(result, &domain.Passenger{
			UserID: r.UserID,
			Name:   m.names[r.UserID],
			Seats:  r.Seats,
		})
	}
	return result, nil
}

func (m *MockReservationRepository) GetByTripAndUser(ctx context.Context, tripID, userID string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reservations {
		if r.TripID == tripID && r.UserID == userID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// CountReservations returns the number of reservations.
func (m *MockReservationRepository) CountReservations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

// ──────────────────────────────────────────────
// MOCK RATING REPOSITORY
// ──────────────────────────────────────────────

// MockRatingRepository is a mock implementation of RatingRepository.
type MockRatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]*domain.Rating

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
	ExistsError error
}

// NewMockRatingRepository creates a new mock rating repository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{
		ratings: make(map[string]*domain.Rating),
	}
}

// AddRating adds a rating to the mock repository.
func (m *MockRatingRepository) AddRating(rating *domain.Rating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[rating.ID] = rating
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.TripID == rating.TripID && r.AuthorID == rating.AuthorID && r.TargetID == rating.TargetID {
			return repository.ErrDuplicate
		}
	}
	m.ratings[rating.ID] = rating
	return nil
}

func (m *MockRatingRepository) Exists(ctx context.Context, tripID, authorID, targetID string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.ratings {
		if r.TripID == tripID && r.AuthorID == authorID && r.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRatingRepository) ListByTarget(ctx context.Context, targetID string) ([]*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Rating
	for _, r := range m.ratings {
		if r.TargetID == targetID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CountRatings returns the number of ratings.
func (m *MockRatingRepository) CountRatings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ratings)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// FailAcquire forces every acquire to report contention.
	FailAcquire bool

	// AcquireHook runs at the start of every acquire, outside the lock.
	// Tests use it to interleave a competing write.
	AcquireHook func()
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireHook != nil {
		m.AcquireHook()
	}
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.FailAcquire {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[tripID] {
		return false, nil
	}
	m.locks[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
	return nil
}

// IsLocked reports whether a trip lock is currently held.
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[tripID]
}

// ──────────────────────────────────────────────
// MOCK TX STORE
// ──────────────────────────────────────────────

// MockTxStore is a mock implementation of service.TxStore backed by the
// mock repositories. A mutex serializes open transactions the way the
// row lock does in PostgreSQL. Writes apply immediately; Rollback only
// releases the serialization, it does not undo them.
type MockTxStore struct {
	mu           sync.Mutex
	Trips        *MockTripRepository
	Reservations *MockReservationRepository
	Ratings      *MockRatingRepository
	Users        *MockUserRepository

	// Error injection
	BeginError  error
	CommitError error
}

// NewMockTxStore creates a new mock tx store over the given repositories.
func NewMockTxStore(trips *MockTripRepository, reservations *MockReservationRepository, ratings *MockRatingRepository, users *MockUserRepository) *MockTxStore {
	return &MockTxStore{
		Trips:        trips,
		Reservations: reservations,
		Ratings:      ratings,
		Users:        users,
	}
}

func (m *MockTxStore) BeginReservationTx(ctx context.Context) (service.ReservationTx, error) {
	if m.BeginError != nil {
		return nil, m.BeginError
	}
	m.mu.Lock()
	return &mockTx{store: m}, nil
}

func (m *MockTxStore) BeginRatingTx(ctx context.Context) (service.RatingTx, error) {
	if m.BeginError != nil {
		return nil, m.BeginError
	}
	m.mu.Lock()
	return &mockTx{store: m}, nil
}

// mockTx implements both transaction interfaces over the shared mocks.
type mockTx struct {
	store *MockTxStore
	done  bool
}

func (t *mockTx) TripForUpdate(ctx context.Context, tripID string) (*domain.Trip, error) {
	return t.store.Trips.GetByID(ctx, tripID)
}

func (t *mockTx) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	return t.store.Reservations.Create(ctx, res)
}

func (t *mockTx) UpdateSeats(ctx context.Context, tripID string, availableSeats int) error {
	return t.store.Trips.UpdateSeats(ctx, tripID, availableSeats)
}

func (t *mockTx) CreateRating(ctx context.Context, rating *domain.Rating) error {
	return t.store.Ratings.Create(ctx, rating)
}

func (t *mockTx) ApplyRating(ctx context.Context, userID string, score int) error {
	return t.store.Users.ApplyRating(ctx, userID, score)
}

func (t *mockTx) Commit() error {
	t.release()
	return t.store.CommitError
}

func (t *mockTx) Rollback() error {
	t.release()
	return nil
}

func (t *mockTx) release() {
	if !t.done {
		t.done = true
		t.store.mu.Unlock()
	}
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// ReservationNotice captures one reservation event as published.
type ReservationNotice struct {
	TripID         string
	UserID         string
	Seats          int
	SeatsRemaining int
}

// MockNotifier is a mock implementation of service.Notifier that records
// the events it is asked to publish.
type MockNotifier struct {
	mu sync.Mutex

	TripCreatedCount   int32
	TripStartedCount   int32
	TripCompletedCount int32
	RatingCount        int32

	ReservationNotices []ReservationNotice
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyTripCreated(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.TripCreatedCount, 1)
	return nil
}

func (m *MockNotifier) NotifyTripStarted(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.TripStartedCount, 1)
	return nil
}

func (m *MockNotifier) NotifyTripCompleted(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.TripCompletedCount, 1)
	return nil
}

func (m *MockNotifier) NotifyReservationCreated(ctx context.Context, trip *domain.Trip, res *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReservationNotices = append(m.ReservationNotices, ReservationNotice{
		TripID:         res.TripID,
		UserID:         res.UserID,
		Seats:          res.Seats,
		SeatsRemaining: trip.AvailableSeats,
	})
	return nil
}

func (m *MockNotifier) NotifyRatingSubmitted(ctx context.Context, rating *domain.Rating) error {
	atomic.AddInt32(&m.RatingCount, 1)
	return nil
}

// Notices returns a snapshot of the reservation events published so far.
func (m *MockNotifier) Notices() []ReservationNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReservationNotice, len(m.ReservationNotices))
	copy(out, m.ReservationNotices)
	return out
}

// Ensure the mocks satisfy the service-level contracts.
var (
	_ service.TxStore  = (*MockTxStore)(nil)
	_ service.Notifier = (*MockNotifier)(nil)
)
