package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardmaker/cardmaker/internal/auth"
	"github.com/cardmaker/cardmaker/internal/metrics"
	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
)

// Service errors for authentication and registration.
var (
	// ErrRegistrationDisabled is returned when no registration API key
	// is configured. It is a deployment problem, not a caller mistake.
	ErrRegistrationDisabled = errors.New("registration is not configured")
	ErrInvalidAPIKey        = errors.New("invalid API key")
	ErrUsernameTaken        = errors.New("username already exists")
	// ErrNotAuthenticated covers both an unknown username and a wrong
	// password. A single outcome keeps valid usernames unenumerable.
	ErrNotAuthenticated = errors.New("authentication failed")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	GetUserByName(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// TokenIssuer issues signed bearer tokens.
type TokenIssuer interface {
	Issue(user *model.User, ttl time.Duration) (*model.Token, error)
}

// AuthService owns registration, password verification and login.
type AuthService struct {
	users    UserStore
	tokens   TokenIssuer
	apiKey   string
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService. apiKey is the registration
// reference key; empty disables registration.
func NewAuthService(users UserStore, tokens TokenIssuer, apiKey string, tokenTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		apiKey:   apiKey,
		tokenTTL: tokenTTL,
		logger:   logger,
		metrics:  recorder,
	}
}

// RegisterUser creates a new user after checking the registration API
// key. The username duplicate check is left to the insert's unique
// constraint so the race window between check and insert disappears.
func (s *AuthService) RegisterUser(ctx context.Context, username, password, apiKey string) (*model.User, error) {
	if s.apiKey == "" {
		s.logger.Error("registration rejected: no registration API key configured")
		return nil, ErrRegistrationDisabled
	}
	if !auth.VerifyAPIKey(apiKey, s.apiKey) {
		return nil, ErrInvalidAPIKey
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	user := &model.User{
		ID:             ulid.Make().String(),
		Username:       username,
		HashedPassword: auth.HashPassword(password, salt),
		Salt:           salt,
		Anonymous:      false,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// Authenticate verifies a username/password pair. An unknown username
// and a hash mismatch produce the identical error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure()
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasCredentials() || !auth.VerifyPassword(password, user.Salt, user.HashedPassword) {
		s.metrics.IncLoginFailure()
		return nil, ErrNotAuthenticated
	}

	s.metrics.IncLoginSuccess()
	return user, nil
}

// Login authenticates the user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Token, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(user, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return tok, nil
}

// ListUsers returns the public projection of every user.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	public := make([]model.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.ToPublic())
	}
	return public, nil
}
