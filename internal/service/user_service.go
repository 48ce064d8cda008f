package service

import (
	"context"
	"log/slog"
	"strings"

	"showcase/internal/models"
	"showcase/internal/repository"
)

// UserService resolves identities and manages admin rights.
type UserService struct {
	userRepo repository.UserRepository
}

// RegisterUserInput mirrors what the identity provider hands over. ID is the
// provider's subject; zero lets the database assign one.
type RegisterUserInput struct {
	ID        uint
	Email     string
	Kennitala string
	FirstName string
	LastName  string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetActive resolves an authenticated subject to an active user.
func (s *UserService) GetActive(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetActiveByID(ctx, id)
}

// GetProfile returns the public profile of an active user.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	return s.userRepo.GetProfile(ctx, id)
}

// Register creates a user, refusing a taken subject, email or kennitala.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	if in.ID != 0 {
		_, err := s.userRepo.GetByID(ctx, in.ID)
		switch {
		case err == nil:
			return nil, models.NewConflictError("This account is already registered")
		case models.ErrorCode(err) != models.CodeNotFound:
			return nil, err
		}
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists {
		return nil, models.NewConflictError("A user with this email already exists")
	}

	user := &models.User{
		ID:        in.ID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsActive:  true,
	}
	if kt := strings.TrimSpace(in.Kennitala); kt != "" {
		if !isKennitala(kt) {
			return nil, models.NewValidationError("Kennitala must be 10 digits")
		}
		exists, err := s.userRepo.ExistsByKennitala(ctx, kt)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if exists {
			return nil, models.NewConflictError("A user with this kennitala already exists")
		}
		user.Kennitala = &kt
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAdmin grants or revokes admin rights for the user with email.
func (s *UserService) SetAdmin(ctx context.Context, email string, admin bool) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, admin); err != nil {
		return nil, err
	}
	user.IsStaff = admin
	user.IsSuperuser = admin
	slog.InfoContext(ctx, "admin rights changed", slog.Uint64("user_id", uint64(user.ID)), slog.Bool("admin", admin))
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

func isKennitala(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
