package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
	"rumbo/internal/service"
)

// newReservationService wires mocks into a ReservationService, including
// a mock tx store so the transactional section runs against the same
// repositories.
func newReservationService(tripRepo *MockTripRepository, reservationRepo *MockReservationRepository, userRepo *MockUserRepository, lockStore *MockLockStore) *service.ReservationService {
	txStore := NewMockTxStore(tripRepo, reservationRepo, nil, userRepo)
	return service.NewReservationService(txStore, tripRepo, reservationRepo, userRepo, lockStore, nil, nil, nil)
}

func reservationFixture() (*MockTripRepository, *MockReservationRepository, *MockUserRepository, *MockLockStore) {
	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:             "trip-1",
		DriverID:       "driver-1",
		State:          domain.TripStatePending,
		AvailableSeats: 2,
	})

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", FullName: "Ana"})
	userRepo.AddUser(&domain.User{ID: "passenger-1", FullName: "Bruno"})

	return tripRepo, NewMockReservationRepository(), userRepo, NewMockLockStore()
}

func TestReserve_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	cases := []struct {
		name    string
		req     service.ReserveRequest
		wantErr error
	}{
		{"missing trip", service.ReserveRequest{UserID: "passenger-1", Seats: 1}, service.ErrInvalidTripID},
		{"missing user", service.ReserveRequest{TripID: "trip-1", Seats: 1}, service.ErrInvalidUserID},
		{"zero seats", service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 0}, service.ErrInvalidSeatsRequested},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReserve_UnknownUserOrTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "ghost", Seats: 1})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown user: expected not found, got %v", err)
	}

	_, err = svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-ghost", UserID: "passenger-1", Seats: 1})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown trip: expected not found, got %v", err)
	}
}

func TestReserve_DriverCannotReserveOwnTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "driver-1", Seats: 1})
	if !errors.Is(err, service.ErrDriverOwnTrip) {
		t.Errorf("expected ErrDriverOwnTrip, got %v", err)
	}
}

func TestReserve_RequiresPendingTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, state := range []domain.TripState{domain.TripStateInProgress, domain.TripStateCompleted} {
		tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
		tripRepo.GetTrip("trip-1").State = state
		svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

		_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 1})
		if !errors.Is(err, service.ErrTripNotPending) {
			t.Errorf("state %s: expected ErrTripNotPending, got %v", state, err)
		}
	}
}

func TestReserve_RejectsOversell(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	// Trip has 2 available seats; asking for 3 must fail without any write.
	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 3})
	if !errors.Is(err, service.ErrNotEnoughSeats) {
		t.Errorf("expected ErrNotEnoughSeats, got %v", err)
	}
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected no reservations, got %d", reservationRepo.CountReservations())
	}
	if got := tripRepo.GetTrip("trip-1").AvailableSeats; got != 2 {
		t.Errorf("available seats changed on rejection: %d", got)
	}
}

func TestReserve_RejectsWhenSoldOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	tripRepo.GetTrip("trip-1").AvailableSeats = 0
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 1})
	if !errors.Is(err, service.ErrNotEnoughSeats) {
		t.Errorf("expected ErrNotEnoughSeats, got %v", err)
	}
}

func TestReserve_DecrementsSeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	userRepo.AddUser(&domain.User{ID: "passenger-2", FullName: "Carla"})
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	reservation, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 2})
	if err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}
	if reservation.TripID != "trip-1" || reservation.UserID != "passenger-1" || reservation.Seats != 2 {
		t.Errorf("unexpected reservation: %+v", reservation)
	}
	if got := tripRepo.GetTrip("trip-1").AvailableSeats; got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}
	if reservationRepo.CountReservations() != 1 {
		t.Errorf("expected 1 reservation, got %d", reservationRepo.CountReservations())
	}

	// The trip is now full; the next passenger is turned away.
	_, err = svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-2", Seats: 1})
	if !errors.Is(err, service.ErrNotEnoughSeats) {
		t.Errorf("expected ErrNotEnoughSeats once full, got %v", err)
	}
	if got := tripRepo.GetTrip("trip-1").AvailableSeats; got != 0 {
		t.Errorf("seats went negative: %d", got)
	}
}

func TestReserve_ConcurrentRequestsConserveCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:             "trip-1",
		DriverID:       "driver-1",
		State:          domain.TripStatePending,
		AvailableSeats: 5,
	})

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", FullName: "Ana"})

	const passengers = 8
	for i := 0; i < passengers; i++ {
		userRepo.AddUser(&domain.User{ID: fmt.Sprintf("passenger-%d", i), FullName: "Rider"})
	}

	reservationRepo := NewMockReservationRepository()
	svc := newReservationService(tripRepo, reservationRepo, userRepo, NewMockLockStore())

	var wg sync.WaitGroup
	var accepted, soldOut int32
	for i := 0; i < passengers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				_, err := svc.Reserve(ctx, service.ReserveRequest{
					TripID: "trip-1",
					UserID: fmt.Sprintf("passenger-%d", i),
					Seats:  1,
				})
				switch {
				case errors.Is(err, service.ErrTripBusy):
					continue // the distributed lock was contended, retry
				case errors.Is(err, service.ErrNotEnoughSeats):
					atomic.AddInt32(&soldOut, 1)
				case err == nil:
					atomic.AddInt32(&accepted, 1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
		}(i)
	}
	wg.Wait()

	// 8 passengers chase 5 seats: exactly 5 win, 3 are turned away, and
	// the seat count never goes negative.
	if accepted != 5 || soldOut != 3 {
		t.Errorf("expected 5 accepted and 3 sold out, got %d and %d", accepted, soldOut)
	}
	if got := tripRepo.GetTrip("trip-1").AvailableSeats; got != 0 {
		t.Errorf("expected 0 seats left, got %d", got)
	}
	if reservationRepo.CountReservations() != 5 {
		t.Errorf("expected 5 reservations, got %d", reservationRepo.CountReservations())
	}
}

func TestReserve_EventCarriesCommittedSeatCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:             "trip-1",
		DriverID:       "driver-1",
		State:          domain.TripStatePending,
		AvailableSeats: 5,
	})

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", FullName: "Ana"})
	userRepo.AddUser(&domain.User{ID: "passenger-1", FullName: "Bruno"})

	reservationRepo := NewMockReservationRepository()
	lockStore := NewMockLockStore()

	// Another reservation commits between the unlocked precheck and the
	// locked re-read, shrinking the trip to 3 seats.
	lockStore.AcquireHook = func() {
		tripRepo.GetTrip("trip-1").AvailableSeats = 3
		lockStore.AcquireHook = nil
	}

	notifier := NewMockNotifier()
	txStore := NewMockTxStore(tripRepo, reservationRepo, nil, userRepo)
	svc := service.NewReservationService(txStore, tripRepo, reservationRepo, userRepo, lockStore, nil, notifier, nil)

	if _, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 2}); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	notices := notifier.Notices()
	if len(notices) != 1 {
		t.Fatalf("expected 1 reservation event, got %d", len(notices))
	}
	if notices[0].SeatsRemaining != 1 {
		t.Errorf("event seat count is stale: expected 1, got %d", notices[0].SeatsRemaining)
	}
	if got := tripRepo.GetTrip("trip-1").AvailableSeats; got != 1 {
		t.Errorf("expected 1 seat left, got %d", got)
	}
}

func TestReserve_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-1", TripID: "trip-1", UserID: "passenger-1", Seats: 1})
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 1})
	if !errors.Is(err, service.ErrAlreadyReserved) {
		t.Errorf("expected ErrAlreadyReserved, got %v", err)
	}
	if reservationRepo.CountReservations() != 1 {
		t.Errorf("expected 1 reservation, got %d", reservationRepo.CountReservations())
	}
}

func TestReserve_BusyWhenLockHeld(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	lockStore.FailAcquire = true
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	_, err := svc.Reserve(ctx, service.ReserveRequest{TripID: "trip-1", UserID: "passenger-1", Seats: 1})
	if !errors.Is(err, service.ErrTripBusy) {
		t.Errorf("expected ErrTripBusy, got %v", err)
	}
	if reservationRepo.CountReservations() != 0 {
		t.Errorf("expected no reservations, got %d", reservationRepo.CountReservations())
	}
}

func TestReserve_LockIsPerTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lockStore := NewMockLockStore()

	locked, err := lockStore.AcquireTripLock(ctx, "trip-a", 0)
	if err != nil || !locked {
		t.Fatalf("failed to acquire first lock: locked=%v err=%v", locked, err)
	}

	// Same trip contends, another trip does not.
	locked, _ = lockStore.AcquireTripLock(ctx, "trip-a", 0)
	if locked {
		t.Error("second acquire on same trip should fail")
	}
	locked, _ = lockStore.AcquireTripLock(ctx, "trip-b", 0)
	if !locked {
		t.Error("acquire on a different trip should succeed")
	}

	if err := lockStore.ReleaseTripLock(ctx, "trip-a"); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}
	locked, _ = lockStore.AcquireTripLock(ctx, "trip-a", 0)
	if !locked {
		t.Error("acquire after release should succeed")
	}
}

func TestListPassengers_UnknownTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newReservationService(NewMockTripRepository(), NewMockReservationRepository(), NewMockUserRepository(), NewMockLockStore())

	_, err := svc.ListPassengers(ctx, "trip-ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListPassengers_ReturnsRoster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tripRepo, reservationRepo, userRepo, lockStore := reservationFixture()
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-1", TripID: "trip-1", UserID: "passenger-1", Seats: 2})
	reservationRepo.SetName("passenger-1", "Bruno")
	svc := newReservationService(tripRepo, reservationRepo, userRepo, lockStore)

	passengers, err := svc.ListPassengers(ctx, "trip-1")
	if err != nil {
		t.Fatalf("failed to list passengers: %v", err)
	}
	if len(passengers) != 1 {
		t.Fatalf("expected 1 passenger, got %d", len(passengers))
	}
	if passengers[0].Name != "Bruno" || passengers[0].Seats != 2 {
		t.Errorf("unexpected roster entry: %+v", passengers[0])
	}
}
