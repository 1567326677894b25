package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	TripCacheTTL = 15 * time.Second // seats and state change while pending
	UserCacheTTL = 60 * time.Second // profiles change rarely
)

// Key prefixes
const (
	tripCachePrefix = "cache:trip:"
	userCachePrefix = "cache:user:"
)

// CachedTrip represents a cached trip entity.
type CachedTrip struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driver_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	AvailableSeats int       `json:"available_seats"`
	PricePerPerson float64   `json:"price_per_person"`
	Vehicle        string    `json:"vehicle"`
	Music          bool      `json:"music"`
	Pets           bool      `json:"pets"`
	Children       bool      `json:"children"`
	Luggage        bool      `json:"luggage"`
	Notes          string    `json:"notes"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
}

// CachedUser represents a cached public user profile. Credentials are
// never cached.
type CachedUser struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	About          string    `json:"about"`
	Vehicle        string    `json:"vehicle"`
	VehicleDetails string    `json:"vehicle_details"`
	RatingCount    int       `json:"rating_count"`
	RatingAvg      float64   `json:"rating_avg"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetTrip retrieves a trip from cache. Returns nil on a cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*CachedTrip, error) {
	data, err := s.client.Get(ctx, tripCachePrefix+tripID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var trip CachedTrip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *CachedTrip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tripCachePrefix+trip.ID, data, TripCacheTTL).Err()
}

// InvalidateTrip removes a trip from cache. Called after every state
// transition and every successful reservation.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, tripCachePrefix+tripID).Err()
}

// GetUser retrieves a user from cache. Returns nil on a cache miss.
func (s *CacheStore) GetUser(ctx context.Context, userID string) (*CachedUser, error) {
	data, err := s.client.Get(ctx, userCachePrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user CachedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser stores a user in cache.
func (s *CacheStore) SetUser(ctx context.Context, user *CachedUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userCachePrefix+user.ID, data, UserCacheTTL).Err()
}

// InvalidateUser removes a user from cache. Called after profile edits
// and after the rating aggregate changes.
func (s *CacheStore) InvalidateUser(ctx context.Context, userID string) error {
	return s.client.Del(ctx, userCachePrefix+userID).Err()
}
