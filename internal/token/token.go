// Package token issues and verifies signed, time-bounded bearer tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
)

var (
	// ErrNoSecret indicates the signing secret is not configured.
	// This is a configuration error, not a caller mistake.
	ErrNoSecret = errors.New("token signing secret is not configured")
	// ErrInvalidToken covers every verification failure: bad signature,
	// expired, missing claim, or the user no longer exists. Collapsing
	// them prevents callers from probing which factor failed.
	ErrInvalidToken = errors.New("invalid token")
)

// UserResolver resolves a username claim back to a stored user.
// Lookups for missing users are expected to return
// repository.ErrUserNotFound.
type UserResolver interface {
	GetUserByName(ctx context.Context, username string) (*model.User, error)
}

// claims is the signed payload. It carries only the username; salts and
// password hashes must never be embedded.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service signs and verifies bearer tokens with a process-wide secret.
type Service struct {
	secret []byte
	users  UserResolver
	now    func() time.Time
}

// NewService creates a token Service. The secret may be empty, in which
// case every Issue and Verify call fails with ErrNoSecret; main treats a
// missing SECRET_KEY as fatal before getting here.
func NewService(secret string, users UserResolver) *Service {
	return &Service{
		secret: []byte(secret),
		users:  users,
		now:    time.Now,
	}
}

// Issue creates a signed bearer token for the user, valid for ttl.
// A non-positive ttl produces an already-expired token, which Verify
// rejects.
func (s *Service) Issue(user *model.User, ttl time.Duration) (*model.Token, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.Token{
		AccessToken: signed,
		TokenType:   model.TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify checks the signature and expiration of a token and resolves the
// username claim through the store. There is no revocation list: a user
// deleted or renamed since issuance is detected here, lazily. The
// returned time is the token's expiry, for callers that cache the
// result.
func (s *Service) Verify(ctx context.Context, tokenString string) (*model.User, time.Time, error) {
	if len(s.secret) == 0 {
		return nil, time.Time{}, ErrNoSecret
	}

	parsed := &claims{}
	t, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !t.Valid {
		return nil, time.Time{}, ErrInvalidToken
	}

	// A token is valid strictly while now < expires_at. The library
	// applies its own expiry check during parsing; this one closes the
	// now == expires_at edge.
	if parsed.ExpiresAt == nil || !s.now().Before(parsed.ExpiresAt.Time) {
		return nil, time.Time{}, ErrInvalidToken
	}

	if parsed.Username == "" {
		return nil, time.Time{}, ErrInvalidToken
	}

	user, err := s.users.GetUserByName(ctx, parsed.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, time.Time{}, ErrInvalidToken
		}
		return nil, time.Time{}, fmt.Errorf("resolve token user: %w", err)
	}

	return user, parsed.ExpiresAt.Time, nil
}
