package model

import "time"

// TokenTypeBearer is the only token type the API issues.
const TokenTypeBearer = "bearer"

// Token is a signed bearer credential returned by login. It is never
// persisted; verification reconstructs the claims from the signature.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
