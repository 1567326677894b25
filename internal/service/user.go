package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rumbo/internal/domain"
	"rumbo/internal/redis"
	"rumbo/internal/repository"
)

// UserService handles registration, login, and profile management.
type UserService struct {
	userRepo   repository.UserRepository
	cacheStore *redis.CacheStore
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, cacheStore *redis.CacheStore) *UserService {
	return &UserService{
		userRepo:   userRepo,
		cacheStore: cacheStore,
	}
}

// RegisterRequest contains the parameters for registering a user.
type RegisterRequest struct {
	FullName       string
	Email          string
	Phone          string
	DNI            string
	Password       string
	Vehicle        string
	VehicleDetails string
}

// Register creates a new account. The password is stored as a bcrypt
// hash; email addresses are unique.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, ErrMissingFullName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if req.Password == "" {
		return nil, ErrMissingPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:             uuid.New().String(),
		FullName:       strings.TrimSpace(req.FullName),
		Email:          email,
		Phone:          req.Phone,
		DNI:            req.DNI,
		PasswordHash:   string(hash),
		Vehicle:        req.Vehicle,
		VehicleDetails: req.VehicleDetails,
		CreatedAt:      time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Login verifies credentials. Unknown emails surface as not found so
// the client can distinguish them from a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}

	return user, nil
}

// Get retrieves a user by ID, serving from cache when possible. The
// cached copy never carries credentials.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetUser(ctx, userID); err == nil && cached != nil {
			return fromCachedUser(cached), nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetUser(ctx, toCachedUser(user))
	}

	return user, nil
}

// UpdateProfileRequest carries the profile fields to change. Nil fields
// are left untouched, so the client can persist one field at a time.
type UpdateProfileRequest struct {
	Phone          *string
	About          *string
	Vehicle        *string
	VehicleDetails *string
}

// UpdateProfile updates the mutable profile fields of a user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.About != nil {
		user.About = *req.About
	}
	if req.Vehicle != nil {
		user.Vehicle = *req.Vehicle
	}
	if req.VehicleDetails != nil {
		user.VehicleDetails = *req.VehicleDetails
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateUser(ctx, userID)
	}

	return user, nil
}

func toCachedUser(user *domain.User) *redis.CachedUser {
	return &redis.CachedUser{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		Phone:          user.Phone,
		About:          user.About,
		Vehicle:        user.Vehicle,
		VehicleDetails: user.VehicleDetails,
		RatingCount:    user.RatingCount,
		RatingAvg:      user.RatingAvg,
		CreatedAt:      user.CreatedAt,
	}
}

func fromCachedUser(cached *redis.CachedUser) *domain.User {
	return &domain.User{
		ID:             cached.ID,
		FullName:       cached.FullName,
		Email:          cached.Email,
		Phone:          cached.Phone,
		About:          cached.About,
		Vehicle:        cached.Vehicle,
		VehicleDetails: cached.VehicleDetails,
		RatingCount:    cached.RatingCount,
		RatingAvg:      cached.RatingAvg,
		CreatedAt:      cached.CreatedAt,
	}
}
