// Package auth provides credential primitives: salted password hashing,
// constant-time verification, and cache key derivation.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP 2024 recommended minimum).
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32

	// SaltLen is the number of random bytes in a freshly generated salt.
	SaltLen = 16
)

// GenerateSalt returns SaltLen cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword computes the Argon2id digest of (password, salt) and
// returns it base64-encoded. The salt is stored alongside the hash, so
// the function is deterministic for a given input pair: verification
// works by recomputation.
func HashPassword(password string, salt []byte) string {
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)
	return base64.RawStdEncoding.EncodeToString(hash)
}

// VerifyPassword recomputes the digest with the stored salt and compares
// it against the stored hash in constant time.
func VerifyPassword(password string, salt []byte, encodedHash string) bool {
	expected, err := base64.RawStdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// VerifyAPIKey compares a candidate key against the configured reference
// key in constant time. An empty reference key always fails: callers are
// expected to treat that as a configuration error, not a caller mistake.
func VerifyAPIKey(candidate, reference string) bool {
	if reference == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(reference)) == 1
}

// QuickHash returns a SHA256 hash of the input for cache keys.
// This is NOT for password storage, only for cache key derivation.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16]) // Use first 16 bytes (32 hex chars)
}
