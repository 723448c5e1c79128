package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Validation limits.
const (
	// MaxUsernameLength is the maximum length for a username.
	MaxUsernameLength = 64

	// MinUsernameLength is the minimum length for a username.
	MinUsernameLength = 3

	// MaxCardNameLength is the maximum length for a card name.
	MaxCardNameLength = 128

	// MaxCardTextLength is the maximum length for a card's fluff or
	// effect text.
	MaxCardTextLength = 4096

	// MaxTagNameLength is the maximum length for a tag name.
	MaxTagNameLength = 64

	// MaxTagDescriptionLength is the maximum length for a tag description.
	MaxTagDescriptionLength = 256
)

// Validation errors.
var (
	ErrUsernameTooLong   = errors.New("username exceeds maximum length")
	ErrUsernameTooShort  = errors.New("username is too short")
	ErrUsernameInvalid   = errors.New("username contains invalid characters")
	ErrUsernameReserved  = errors.New("username is reserved")
	ErrCardNameTooLong   = errors.New("card name exceeds maximum length")
	ErrCardTextTooLong   = errors.New("card text exceeds maximum length")
	ErrTagNameTooLong    = errors.New("tag name exceeds maximum length")
	ErrTagNameInvalid    = errors.New("tag name contains invalid characters")
	ErrTagDescTooLong    = errors.New("tag description exceeds maximum length")
)

// ReservedUsernames contains usernames that cannot be registered.
// "anonymous" is the built-in default author; the rest are common
// abuse targets.
var ReservedUsernames = map[string]bool{
	"anonymous": true,
	"admin":     true,
	"root":      true,
	"system":    true,
	"api":       true,
	"support":   true,
	"moderator": true,
}

// validUsernamePattern matches valid username characters.
// Allowed: a-z, A-Z, 0-9, hyphen, underscore
var validUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validTagNamePattern matches valid tag name characters.
// Tag names are the tag's natural key, so the alphabet is kept small:
// a-z, A-Z, 0-9, space, hyphen, underscore.
var validTagNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// ValidateUsername validates a username for registration.
func ValidateUsername(username string) error {
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	if len(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}

	if !validUsernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}

	// Check reserved usernames (case-insensitive)
	if ReservedUsernames[strings.ToLower(username)] {
		return ErrUsernameReserved
	}

	return nil
}

// ValidateCardName validates a card name. Emptiness is rejected later
// by the card service; this only bounds the size.
func ValidateCardName(name string) error {
	if len(name) > MaxCardNameLength {
		return ErrCardNameTooLong
	}
	return nil
}

// ValidateCardText validates a card's fluff or effect text.
func ValidateCardText(text string) error {
	if len(text) > MaxCardTextLength {
		return ErrCardTextTooLong
	}
	return nil
}

// ValidateTagName validates a tag name supplied by a client.
// Leading and trailing whitespace is rejected rather than trimmed so
// that "rare" and " rare" cannot become two catalogue entries.
func ValidateTagName(name string) error {
	if name == "" {
		return nil // Empty entries are dropped during reconciliation
	}

	if len(name) > MaxTagNameLength {
		return ErrTagNameTooLong
	}

	if strings.TrimSpace(name) != name {
		return ErrTagNameInvalid
	}

	if !validTagNamePattern.MatchString(name) {
		return ErrTagNameInvalid
	}

	// Reject non-ASCII outright to prevent homograph duplicates in the
	// shared tag catalogue.
	for _, r := range name {
		if r > unicode.MaxASCII {
			return ErrTagNameInvalid
		}
	}

	return nil
}

// ValidateTagDescription validates a tag description.
func ValidateTagDescription(description string) error {
	if len(description) > MaxTagDescriptionLength {
		return ErrTagDescTooLong
	}
	return nil
}
