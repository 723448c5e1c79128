package dto

import (
	"time"

	"github.com/cardmaker/cardmaker/internal/model"
)

// RegisterUserRequest represents the request body for registering a user.
// The API key gates registration; it is not the user's credential.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

// LoginRequest represents the request body for obtaining a token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses.
// Credentials never appear here.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse represents an issued bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Anonymous: user.Anonymous,
		CreatedAt: user.CreatedAt,
	}
}

// PublicUserResponse is the reduced projection used by the user list.
type PublicUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PublicUserListResponse represents the user listing.
type PublicUserListResponse struct {
	Data []PublicUserResponse `json:"data"`
}

// ToPublicUserListResponse converts public user projections to the
// listing DTO.
func ToPublicUserListResponse(users []model.PublicUser) *PublicUserListResponse {
	out := make([]PublicUserResponse, len(users))
	for i, user := range users {
		out[i] = PublicUserResponse{ID: user.ID, Username: user.Username}
	}
	return &PublicUserListResponse{Data: out}
}

// ToTokenResponse converts a Token model to TokenResponse DTO.
func ToTokenResponse(tok *model.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   tok.ExpiresAt,
	}
}
