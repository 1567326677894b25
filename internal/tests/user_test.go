package tests

import (
	"context"
	"errors"
	"testing"

	"rumbo/internal/domain"
	"rumbo/internal/repository"
	"rumbo/internal/service"
)

func TestRegister_CreatesAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	svc := service.NewUserService(userRepo, nil)

	user, err := svc.Register(ctx, service.RegisterRequest{
		FullName: "  Ana García  ",
		Email:    "Ana.Garcia@Example.COM",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	if user.FullName != "Ana García" {
		t.Errorf("expected trimmed name, got %q", user.FullName)
	}
	// Emails are normalized to lowercase.
	if user.Email != "ana.garcia@example.com" {
		t.Errorf("expected lowercase email, got %q", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret" {
		t.Error("password must be stored hashed")
	}
	if user.RatingCount != 0 || user.RatingAvg != 0 {
		t.Errorf("new account should have an empty aggregate: count=%d avg=%v", user.RatingCount, user.RatingAvg)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := service.NewUserService(NewMockUserRepository(), nil)

	cases := []struct {
		name    string
		req     service.RegisterRequest
		wantErr error
	}{
		{"missing name", service.RegisterRequest{Email: "a@b.com", Password: "x"}, service.ErrMissingFullName},
		{"missing email", service.RegisterRequest{FullName: "Ana", Password: "x"}, service.ErrInvalidEmail},
		{"malformed email", service.RegisterRequest{FullName: "Ana", Email: "not-an-email", Password: "x"}, service.ErrInvalidEmail},
		{"missing password", service.RegisterRequest{FullName: "Ana", Email: "a@b.com"}, service.ErrMissingPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	svc := service.NewUserService(userRepo, nil)

	if _, err := svc.Register(ctx, service.RegisterRequest{FullName: "Ana", Email: "ana@example.com", Password: "x"}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	// Same address with different casing still collides.
	_, err := svc.Register(ctx, service.RegisterRequest{FullName: "Imposter", Email: "ANA@example.com", Password: "y"})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	svc := service.NewUserService(userRepo, nil)

	registered, err := svc.Register(ctx, service.RegisterRequest{FullName: "Ana", Email: "ana@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	user, err := svc.Login(ctx, "Ana@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %s, got %s", registered.ID, user.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	svc := service.NewUserService(userRepo, nil)

	if _, err := svc.Register(ctx, service.RegisterRequest{FullName: "Ana", Email: "ana@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	_, err := svc.Login(ctx, "ana@example.com", "wrong")
	if !errors.Is(err, service.ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := service.NewUserService(NewMockUserRepository(), nil)

	// Unknown emails are not found, distinct from a wrong password.
	_, err := svc.Login(ctx, "nobody@example.com", "whatever")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	userRepo := NewMockUserRepository()
	userRepo.AddUser(&domain.User{
		ID:       "user-1",
		FullName: "Ana",
		Phone:    "111",
		About:    "old about",
		Vehicle:  "Fiat Cronos",
	})
	svc := service.NewUserService(userRepo, nil)

	phone := "222"
	user, err := svc.UpdateProfile(ctx, "user-1", service.UpdateProfileRequest{Phone: &phone})
	if err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}

	if user.Phone != "222" {
		t.Errorf("expected updated phone, got %q", user.Phone)
	}
	// Untouched fields survive a partial update.
	if user.About != "old about" || user.Vehicle != "Fiat Cronos" {
		t.Errorf("unrelated fields changed: about=%q vehicle=%q", user.About, user.Vehicle)
	}

	stored := userRepo.GetUser("user-1")
	if stored.Phone != "222" || stored.About != "old about" {
		t.Errorf("persisted copy mismatch: phone=%q about=%q", stored.Phone, stored.About)
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := service.NewUserService(NewMockUserRepository(), nil)

	about := "hola"
	_, err := svc.UpdateProfile(ctx, "ghost", service.UpdateProfileRequest{About: &about})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
