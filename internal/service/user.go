package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kennytong915/Japan-Ramen-Database/internal/auth"
	"github.com/kennytong915/Japan-Ramen-Database/internal/contentfilter"
	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/repository"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for registration and login,
// including username screening and the failed-login lockout policy.
type UserService struct {
	users      repository.UserRepository
	filter     *contentfilter.Filter
	jwtManager *auth.JWTManager
	logger     *slog.Logger

	now func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	filter *contentfilter.Filter,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		filter:     filter,
		jwtManager: jwtManager,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new user account. Usernames containing disallowed terms
// are rejected outright rather than redacted.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if input.Username == "" {
		return nil, "", apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if s.filter.ContainsDisallowed(input.Username) {
		matches := s.filter.Matches(input.Username)
		s.logger.WarnContext(ctx, "username rejected by content filter",
			slog.String("matches", strings.Join(matches, ",")),
		)
		return nil, "", apperrors.InvalidInput("username contains inappropriate content")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtManager.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, token, nil
}

// Login authenticates a user. Repeated failed attempts lock the account for a
// fixed window; the lockout state is persisted so it survives restarts.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if input.Username == "" {
		return nil, "", apperrors.InvalidInput("username is required")
	}
	if input.Password == "" {
		return nil, "", apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid username or password")
	}

	now := s.now().UTC()
	if user.IsLocked(now) {
		return nil, "", apperrors.Unauthorized("account is temporarily locked, try again later")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailedLogin(ctx, user, now)
		return nil, "", apperrors.Unauthorized("invalid username or password")
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		user.FailedLogins = 0
		user.LockedUntil = nil
		if err := s.users.UpdateLoginState(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to reset login state",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	token, err := s.jwtManager.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// recordFailedLogin increments the failure counter and locks the account when
// the threshold is reached.
func (s *UserService) recordFailedLogin(ctx context.Context, user *domain.User, now time.Time) {
	user.FailedLogins++
	if user.FailedLogins >= domain.MaxFailedLoginAttempts {
		lockedUntil := now.Add(domain.LockDurationMinutes * time.Minute)
		user.LockedUntil = &lockedUntil
		user.FailedLogins = 0
		s.logger.WarnContext(ctx, "account locked after repeated failed logins",
			slog.String("user_id", user.ID),
			slog.Time("locked_until", lockedUntil),
		)
	}

	if err := s.users.UpdateLoginState(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist login state",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
