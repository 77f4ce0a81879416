// Authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// Registration always produces a member. Coordinator accounts are
// provisioned by seeding at startup (SeedCoordinator), never through the
// public API — a registration payload cannot name its own role.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/urfit-server/internal/apperror"
	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/model"
	"github.com/sakif/urfit-server/internal/repository"
)

const MinPasswordLength = 8

// AuthService handles registration, login, and identity lookups.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new member account.
//
// The email is normalized to lower case so "Alex@Example.com" and
// "alex@example.com" are the same account; uniqueness is enforced by the
// repository and surfaces as a conflict.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleMember,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies the credentials and issues a session token carrying the
// user's ID and role.
//
// A wrong email and a wrong password both return the same unauthorized
// error — callers can't probe which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("email", email))
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware has validated the JWT.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

// ListUsers returns all accounts. Coordinators only — the listing exists so
// a coordinator can pick enrollment targets, and exposes emails the general
// membership has no business reading.
func (s *AuthService) ListUsers(ctx context.Context, claim auth.Claim) ([]model.User, error) {
	if !claim.IsCoordinator() {
		return nil, apperror.Forbidden("access denied")
	}
	return s.users.ListUsers(ctx)
}

// SeedCoordinator ensures a coordinator account exists for the given email,
// creating it with the supplied password if it doesn't. Called once at
// startup from the configured admin credentials; a no-op if the account is
// already there.
func (s *AuthService) SeedCoordinator(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil // seeding not configured
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: checking coordinator %s: %w", email, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing coordinator password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleCoordinator,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("service/auth: seeding coordinator %s: %w", email, err)
	}

	s.logger.Info("coordinator account seeded", slog.String("email", email))
	return nil
}
