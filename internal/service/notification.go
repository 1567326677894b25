package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"rumbo/internal/domain"
)

// Subjects are per-entity: rumbo.trips.<id>.<event> and
// rumbo.users.<id>.ratings. Consumers (push delivery, mail) are
// external to this service.
const (
	eventCreated   = "created"
	eventStarted   = "started"
	eventCompleted = "completed"
)

// Notifier publishes the domain events the services raise. The services
// treat publishing as best effort and never fail a request over it.
type Notifier interface {
	NotifyTripCreated(ctx context.Context, trip *domain.Trip) error
	NotifyTripStarted(ctx context.Context, trip *domain.Trip) error
	NotifyTripCompleted(ctx context.Context, trip *domain.Trip) error
	NotifyReservationCreated(ctx context.Context, trip *domain.Trip, res *domain.Reservation) error
	NotifyRatingSubmitted(ctx context.Context, rating *domain.Rating) error
}

// NotificationService publishes domain events. With no NATS connection
// configured it degrades to logging, so the core flows never depend on
// the broker being up.
type NotificationService struct {
	nc *nats.Conn
}

// NewNotificationService connects to NATS at url. An empty url disables
// publishing.
func NewNotificationService(url string) (*NotificationService, error) {
	if url == "" {
		return &NotificationService{}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("rumbo-server"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}

	return &NotificationService{nc: nc}, nil
}

// Close drains and closes the NATS connection.
func (s *NotificationService) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
		s.nc.Close()
	}
}

// TripEvent is the payload for trip lifecycle events.
type TripEvent struct {
	TripID      string    `json:"tripId"`
	DriverID    string    `json:"driverId"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	State       string    `json:"state"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReservationEvent is the payload for reservation events.
type ReservationEvent struct {
	TripID         string    `json:"tripId"`
	UserID         string    `json:"userId"`
	Seats          int       `json:"seats"`
	SeatsRemaining int       `json:"seatsRemaining"`
	Timestamp      time.Time `json:"timestamp"`
}

// RatingEvent is the payload for rating events.
type RatingEvent struct {
	TripID    string    `json:"tripId"`
	AuthorID  string    `json:"authorId"`
	TargetID  string    `json:"targetId"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyTripCreated publishes a trip created event.
func (s *NotificationService) NotifyTripCreated(ctx context.Context, trip *domain.Trip) error {
	return s.publish(tripSubject(trip.ID, eventCreated), tripEvent(trip))
}

// NotifyTripStarted publishes a trip started event.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip) error {
	return s.publish(tripSubject(trip.ID, eventStarted), tripEvent(trip))
}

// NotifyTripCompleted publishes a trip completed event.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip) error {
	return s.publish(tripSubject(trip.ID, eventCompleted), tripEvent(trip))
}

// NotifyReservationCreated publishes a reservation event.
func (s *NotificationService) NotifyReservationCreated(ctx context.Context, trip *domain.Trip, res *domain.Reservation) error {
	return s.publish(tripSubject(res.TripID, "reservations"), ReservationEvent{
		TripID:         res.TripID,
		UserID:         res.UserID,
		Seats:          res.Seats,
		SeatsRemaining: trip.AvailableSeats,
		Timestamp:      time.Now(),
	})
}

// NotifyRatingSubmitted publishes a rating event on the target's subject.
func (s *NotificationService) NotifyRatingSubmitted(ctx context.Context, rating *domain.Rating) error {
	return s.publish(fmt.Sprintf("rumbo.users.%s.ratings", subjectToken(rating.TargetID)), RatingEvent{
		TripID:    rating.TripID,
		AuthorID:  rating.AuthorID,
		TargetID:  rating.TargetID,
		Score:     rating.Score,
		Timestamp: time.Now(),
	})
}

func tripEvent(trip *domain.Trip) TripEvent {
	return TripEvent{
		TripID:      trip.ID,
		DriverID:    trip.DriverID,
		Origin:      trip.Origin,
		Destination: trip.Destination,
		State:       string(trip.State),
		Timestamp:   time.Now(),
	}
}

func tripSubject(tripID, event string) string {
	return fmt.Sprintf("rumbo.trips.%s.%s", subjectToken(tripID), event)
}

func (s *NotificationService) publish(subject string, payload any) error {
	if s.nc == nil {
		log.Printf("[notify] %s: %+v", subject, payload)
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return s.nc.Publish(subject, data)
}

// Ensure NotificationService implements Notifier.
var _ Notifier = (*NotificationService)(nil)

// subjectToken sanitizes one NATS subject token: it cannot contain
// spaces, '.', '>', or '*'.
func subjectToken(s string) string {
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_")
	s = repl.Replace(strings.TrimSpace(s))
	if s == "" {
		s = "_"
	}
	return s
}
