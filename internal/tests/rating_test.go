package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
	"rumbo/internal/service"
)

// newRatingService wires mocks into a RatingService, including a mock
// tx store so the transactional section runs against the same
// repositories.
func newRatingService(ratingRepo *MockRatingRepository, tripRepo *MockTripRepository, reservationRepo *MockReservationRepository, userRepo *MockUserRepository) *service.RatingService {
	txStore := NewMockTxStore(tripRepo, nil, ratingRepo, userRepo)
	return service.NewRatingService(txStore, ratingRepo, tripRepo, reservationRepo, userRepo, nil, nil, nil)
}

// completedTripFixture sets up a completed trip driven by driver-1 with
// passenger-1 holding a reservation.
func completedTripFixture() (*MockRatingRepository, *MockTripRepository, *MockReservationRepository, *MockUserRepository) {
	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:       "trip-1",
		DriverID: "driver-1",
		State:    domain.TripStateCompleted,
	})

	reservationRepo := NewMockReservationRepository()
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-1", TripID: "trip-1", UserID: "passenger-1", Seats: 1})

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1", FullName: "Ana"})
	userRepo.AddUser(&domain.User{ID: "passenger-1", FullName: "Bruno"})

	return NewMockRatingRepository(), tripRepo, reservationRepo, userRepo
}

func TestSubmitRating_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newRatingService(completedTripFixture())

	cases := []struct {
		name    string
		req     service.SubmitRatingRequest
		wantErr error
	}{
		{"missing trip", service.SubmitRatingRequest{AuthorID: "a", TargetID: "b", Score: 5}, service.ErrInvalidTripID},
		{"missing author", service.SubmitRatingRequest{TripID: "trip-1", TargetID: "b", Score: 5}, service.ErrInvalidUserID},
		{"missing target", service.SubmitRatingRequest{TripID: "trip-1", AuthorID: "a", Score: 5}, service.ErrInvalidUserID},
		{"self rating", service.SubmitRatingRequest{TripID: "trip-1", AuthorID: "a", TargetID: "a", Score: 5}, service.ErrSelfRating},
		{"score too low", service.SubmitRatingRequest{TripID: "trip-1", AuthorID: "a", TargetID: "b", Score: 0}, service.ErrInvalidScore},
		{"score too high", service.SubmitRatingRequest{TripID: "trip-1", AuthorID: "a", TargetID: "b", Score: 6}, service.ErrInvalidScore},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitRating(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSubmitRating_RequiresCompletedTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, state := range []domain.TripState{domain.TripStatePending, domain.TripStateInProgress} {
		ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
		tripRepo.GetTrip("trip-1").State = state
		svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

		_, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
			TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5,
		})
		if !errors.Is(err, service.ErrTripNotCompleted) {
			t.Errorf("state %s: expected ErrTripNotCompleted, got %v", state, err)
		}
	}
}

func TestSubmitRating_RequiresSharedTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newRatingService(completedTripFixture())

	cases := []struct {
		name           string
		author, target string
	}{
		{"author did not ride", "stranger", "driver-1"},
		{"target did not ride", "driver-1", "stranger"},
		{"neither is the driver", "passenger-1", "stranger"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
				TripID: "trip-1", AuthorID: tc.author, TargetID: tc.target, Score: 4,
			})
			if !errors.Is(err, service.ErrNotTripParticipant) {
				t.Errorf("expected ErrNotTripParticipant, got %v", err)
			}
		})
	}
}

func TestSubmitRating_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
	ratingRepo.AddRating(&domain.Rating{
		ID: "rating-1", TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5,
	})
	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	_, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
		TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 3,
	})
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}
	if ratingRepo.CountRatings() != 1 {
		t.Errorf("expected 1 stored rating, got %d", ratingRepo.CountRatings())
	}

	// The reverse direction on the same trip is a distinct triple.
	exists, err := ratingRepo.Exists(ctx, "trip-1", "driver-1", "passenger-1")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if exists {
		t.Error("reverse direction should not be blocked by the existing rating")
	}
}

func TestSubmitRating_AppliesAggregateOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	rating, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
		TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5, Comment: "great trip",
	})
	if err != nil {
		t.Fatalf("failed to submit rating: %v", err)
	}
	if rating.Score != 5 || rating.Comment != "great trip" {
		t.Errorf("unexpected rating: %+v", rating)
	}
	if ratingRepo.CountRatings() != 1 {
		t.Errorf("expected 1 stored rating, got %d", ratingRepo.CountRatings())
	}

	driver := userRepo.GetUser("driver-1")
	if driver.RatingCount != 1 || driver.RatingAvg != 5.0 {
		t.Errorf("unexpected aggregate: count=%d avg=%v", driver.RatingCount, driver.RatingAvg)
	}

	// A repeat submission changes nothing.
	_, err = svc.SubmitRating(ctx, service.SubmitRatingRequest{
		TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 1,
	})
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}
	if driver := userRepo.GetUser("driver-1"); driver.RatingCount != 1 || driver.RatingAvg != 5.0 {
		t.Errorf("aggregate moved on a rejected duplicate: count=%d avg=%v", driver.RatingCount, driver.RatingAvg)
	}

	// The driver rating the passenger is the opposite direction and
	// goes through.
	if _, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
		TripID: "trip-1", AuthorID: "driver-1", TargetID: "passenger-1", Score: 4,
	}); err != nil {
		t.Fatalf("failed to submit reverse rating: %v", err)
	}
	if passenger := userRepo.GetUser("passenger-1"); passenger.RatingCount != 1 || passenger.RatingAvg != 4.0 {
		t.Errorf("unexpected passenger aggregate: count=%d avg=%v", passenger.RatingCount, passenger.RatingAvg)
	}
}

func TestSubmitRating_ConcurrentDuplicateCountsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	var wg sync.WaitGroup
	var accepted, rejected int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitRating(ctx, service.SubmitRatingRequest{
				TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5,
			})
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, service.ErrAlreadyRated):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || rejected != 1 {
		t.Errorf("expected 1 accepted and 1 rejected, got %d and %d", accepted, rejected)
	}
	if ratingRepo.CountRatings() != 1 {
		t.Errorf("expected 1 stored rating, got %d", ratingRepo.CountRatings())
	}
	if driver := userRepo.GetUser("driver-1"); driver.RatingCount != 1 {
		t.Errorf("aggregate counted a duplicate: count=%d", driver.RatingCount)
	}
}

func TestApplyRating_RunningMean(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{ID: "driver-1"})

	for _, score := range []int{5, 3, 4} {
		if err := userRepo.ApplyRating(ctx, "driver-1", score); err != nil {
			t.Fatalf("failed to apply rating: %v", err)
		}
	}

	user := userRepo.GetUser("driver-1")
	if user.RatingCount != 3 {
		t.Errorf("expected count 3, got %d", user.RatingCount)
	}
	if user.RatingAvg != 4.0 {
		t.Errorf("expected mean 4.0, got %v", user.RatingAvg)
	}
}

func TestRatingsForUser_ReturnsAggregateAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
	userRepo.GetUser("driver-1").RatingCount = 2
	userRepo.GetUser("driver-1").RatingAvg = 4.5
	ratingRepo.AddRating(&domain.Rating{ID: "rating-1", TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5})
	ratingRepo.AddRating(&domain.Rating{ID: "rating-2", TripID: "trip-2", AuthorID: "passenger-2", TargetID: "driver-1", Score: 4})

	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	user, ratings, err := svc.RatingsForUser(ctx, "driver-1")
	if err != nil {
		t.Fatalf("failed to list ratings: %v", err)
	}
	if user.RatingCount != 2 || user.RatingAvg != 4.5 {
		t.Errorf("unexpected aggregate: count=%d avg=%v", user.RatingCount, user.RatingAvg)
	}
	if len(ratings) != 2 {
		t.Errorf("expected 2 ratings, got %d", len(ratings))
	}
}

func TestPendingRatings_AsPassenger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()

	// A second, still pending trip must not show up.
	tripRepo.AddTrip(&domain.Trip{ID: "trip-2", DriverID: "driver-2", State: domain.TripStatePending})
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-2", TripID: "trip-2", UserID: "passenger-1", Seats: 1})

	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	pending, err := svc.PendingRatings(ctx, "passenger-1", service.RolePassenger)
	if err != nil {
		t.Fatalf("failed to list pending ratings: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending rating, got %d", len(pending))
	}
	if pending[0].Trip.ID != "trip-1" {
		t.Errorf("expected trip-1, got %s", pending[0].Trip.ID)
	}
	if len(pending[0].Counterparts) != 1 || pending[0].Counterparts[0].UserID != "driver-1" {
		t.Errorf("expected driver-1 as counterpart, got %+v", pending[0].Counterparts)
	}

	// Once the driver is rated, nothing is pending.
	ratingRepo.AddRating(&domain.Rating{ID: "rating-1", TripID: "trip-1", AuthorID: "passenger-1", TargetID: "driver-1", Score: 5})
	pending, err = svc.PendingRatings(ctx, "passenger-1", service.RolePassenger)
	if err != nil {
		t.Fatalf("failed to list pending ratings: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending ratings, got %d", len(pending))
	}
}

func TestPendingRatings_AsDriver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-2", TripID: "trip-1", UserID: "passenger-2", Seats: 1})
	reservationRepo.SetName("passenger-1", "Bruno")
	reservationRepo.SetName("passenger-2", "Carla")

	// One of the two passengers is already rated.
	ratingRepo.AddRating(&domain.Rating{ID: "rating-1", TripID: "trip-1", AuthorID: "driver-1", TargetID: "passenger-1", Score: 5})

	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	pending, err := svc.PendingRatings(ctx, "driver-1", service.RoleDriver)
	if err != nil {
		t.Fatalf("failed to list pending ratings: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending rating, got %d", len(pending))
	}
	if len(pending[0].Counterparts) != 1 {
		t.Fatalf("expected 1 unrated passenger, got %d", len(pending[0].Counterparts))
	}
	if pending[0].Counterparts[0].UserID != "passenger-2" || pending[0].Counterparts[0].Name != "Carla" {
		t.Errorf("unexpected counterpart: %+v", pending[0].Counterparts[0])
	}
}

func TestPendingRatings_InvalidRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newRatingService(completedTripFixture())

	_, err := svc.PendingRatings(ctx, "driver-1", service.Role("owner"))
	if !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestPendingRatings_UnratedUnknownTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ratingRepo, tripRepo, reservationRepo, userRepo := completedTripFixture()

	// A reservation pointing at a missing trip surfaces the storage error.
	reservationRepo.AddReservation(&domain.Reservation{ID: "res-x", TripID: "trip-ghost", UserID: "passenger-1", Seats: 1})
	svc := newRatingService(ratingRepo, tripRepo, reservationRepo, userRepo)

	_, err := svc.PendingRatings(ctx, "passenger-1", service.RolePassenger)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
