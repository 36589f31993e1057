package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
	"github.com/gobag/gobag-backend/internal/services"
	"github.com/gobag/gobag-backend/pkg/utils"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// AuthStore owns user identity and sessions.
type AuthStore struct {
	users  repository.UserRepository
	logger *zap.SugaredLogger
}

func NewAuthStore(users repository.UserRepository, logger *zap.SugaredLogger) *AuthStore {
	return &AuthStore{users: users, logger: logger}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     models.UserRole
}

// Register creates a user and signs them in, returning the user and a
// session token. Duplicate emails fail with repository.ErrUserExists.
func (s *AuthStore) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password,
		Role:     input.Role,
		Active:   true,
	}
	if err := user.HashPassword(); err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Infow("user registered", "userId", user.ID, "role", user.Role)
	return user, token, nil
}

// Login authenticates by email and password. Any mismatch, including
// an unknown email or a deactivated account, yields
// ErrInvalidCredentials so callers cannot probe the registry.
func (s *AuthStore) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.Active {
		return nil, "", ErrInvalidCredentials
	}
	if err := user.CheckPassword(password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// Logout voids the presented token for its remaining lifetime.
func (s *AuthStore) Logout(ctx context.Context, token string) error {
	ttl := utils.TokenExpiry(token)
	if ttl <= 0 {
		// Already expired or unreadable, nothing to blacklist.
		return nil
	}
	if err := services.BlacklistToken(ctx, token, ttl); err != nil {
		if errors.Is(err, services.ErrCacheUnavailable) {
			s.logger.Warnw("logout without blacklist, cache unavailable")
			return nil
		}
		return err
	}
	return nil
}

func (s *AuthStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

type ProfileUpdate struct {
	Name           string
	ProfilePicture string
}

// UpdateProfile changes the caller's display name and profile picture.
// Empty fields are left untouched.
func (s *AuthStore) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	if update.ProfilePicture != "" {
		user.ProfilePicture = update.ProfilePicture
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func validateRegisterInput(input RegisterInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(input.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch input.Role {
	case models.UserRoleSender, models.UserRoleTraveller:
	default:
		// Admin accounts are provisioned out of band, not registered.
		return fmt.Errorf("%w: role must be sender or traveller", ErrValidation)
	}
	return nil
}
