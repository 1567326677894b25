package service

import "errors"

// Validation errors: bad input shape or range.
var (
	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTripID is returned when the trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrMissingRoute is returned when origin or destination is empty.
	ErrMissingRoute = errors.New("origin and destination are required")

	// ErrMissingSchedule is returned when date or time is empty.
	ErrMissingSchedule = errors.New("date and time are required")

	// ErrInvalidSeatCount is returned when a trip is created with fewer than one seat.
	ErrInvalidSeatCount = errors.New("trip needs at least one available seat")

	// ErrInvalidPrice is returned when the price per person is negative.
	ErrInvalidPrice = errors.New("price per person cannot be negative")

	// ErrInvalidSeatsRequested is returned when a reservation asks for fewer than one seat.
	ErrInvalidSeatsRequested = errors.New("at least one seat must be requested")

	// ErrInvalidScore is returned when a rating score is outside 1..5.
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrSelfRating is returned when author and target are the same user.
	ErrSelfRating = errors.New("cannot rate yourself")

	// ErrInvalidRole is returned when a pending-ratings role is neither driver nor passenger.
	ErrInvalidRole = errors.New("role must be driver or passenger")

	// ErrMissingFullName is returned when registration lacks a name.
	ErrMissingFullName = errors.New("full name is required")

	// ErrInvalidEmail is returned when the email is empty or malformed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrMissingPassword is returned when registration lacks a password.
	ErrMissingPassword = errors.New("password is required")
)

// Forbidden errors: actor not authorized for the action.
var (
	// ErrNotTripDriver is returned when a state transition is requested by anyone but the trip's driver.
	ErrNotTripDriver = errors.New("only the trip driver may do this")

	// ErrNotTripParticipant is returned when a rating does not pair the driver with one of the trip's passengers.
	ErrNotTripParticipant = errors.New("both users must have shared this trip")

	// ErrDriverOwnTrip is returned when a driver tries to reserve seats on their own trip.
	ErrDriverOwnTrip = errors.New("driver cannot reserve seats on their own trip")

	// ErrWrongPassword is returned when login credentials do not match.
	ErrWrongPassword = errors.New("wrong password")
)

// Invalid-state errors: state machine violations.
var (
	// ErrTripNotPending is returned when an action requires a pending trip.
	ErrTripNotPending = errors.New("trip is not pending")

	// ErrTripNotInProgress is returned when completing a trip that has not started.
	ErrTripNotInProgress = errors.New("trip is not in progress")

	// ErrTripNotCompleted is returned when rating before the trip completed.
	ErrTripNotCompleted = errors.New("trip is not completed")
)

// Capacity errors.
var (
	// ErrNotEnoughSeats is returned when a reservation would oversell the trip.
	ErrNotEnoughSeats = errors.New("not enough available seats")
)

// Conflict errors.
var (
	// ErrAlreadyRated is returned when the (author, target, trip) triple was already rated.
	ErrAlreadyRated = errors.New("already rated for this trip")

	// ErrAlreadyReserved is returned when the user already holds a reservation on the trip.
	ErrAlreadyReserved = errors.New("already reserved on this trip")

	// ErrEmailTaken is returned when registering with an email that is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTripBusy is returned when the reservation lock is held by another
	// request. Transient: the caller should retry.
	ErrTripBusy = errors.New("trip is busy, retry")
)
