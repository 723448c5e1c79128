package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_Deterministic(t *testing.T) {
	t.Parallel()

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}

	hash1 := HashPassword("correct horse battery staple", salt)
	hash2 := HashPassword("correct horse battery staple", salt)

	// Same password and salt must produce the same digest so that
	// verification can recompute it.
	if hash1 != hash2 {
		t.Error("hash should be deterministic for a fixed salt")
	}
}

func TestHashPassword_SaltChangesDigest(t *testing.T) {
	t.Parallel()

	salt1, _ := GenerateSalt()
	salt2, _ := GenerateSalt()

	if string(salt1) == string(salt2) {
		t.Fatal("two generated salts should differ")
	}

	hash1 := HashPassword("same password", salt1)
	hash2 := HashPassword("same password", salt2)

	if hash1 == hash2 {
		t.Error("different salts should produce different digests")
	}
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	hash := HashPassword("pa55w0rd!", salt)

	if !VerifyPassword("pa55w0rd!", salt, hash) {
		t.Error("correct password should verify")
	}

	tests := []struct {
		name      string
		candidate string
	}{
		{"wrong password", "pa55w0rd?"},
		{"empty string", ""},
		{"the hash itself", hash},
		{"prefix", "pa55w0rd"},
		{"with suffix", "pa55w0rd!x"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if VerifyPassword(tt.candidate, salt, hash) {
				t.Errorf("candidate %q should not verify", tt.candidate)
			}
		})
	}
}

func TestVerifyPassword_WrongSalt(t *testing.T) {
	t.Parallel()

	salt1, _ := GenerateSalt()
	salt2, _ := GenerateSalt()
	hash := HashPassword("pa55w0rd!", salt1)

	if VerifyPassword("pa55w0rd!", salt2, hash) {
		t.Error("correct password with wrong salt should not verify")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	salt, _ := GenerateSalt()

	if VerifyPassword("password", salt, "not base64 at all!!!") {
		t.Error("malformed stored hash should not verify")
	}
	if VerifyPassword("password", salt, "") {
		t.Error("empty stored hash should not verify")
	}
}

func TestVerifyAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		reference string
		want      bool
	}{
		{"match", "sk_live_abc", "sk_live_abc", true},
		{"mismatch", "sk_live_abc", "sk_live_xyz", false},
		{"empty candidate", "", "sk_live_abc", false},
		{"unconfigured reference", "sk_live_abc", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := VerifyAPIKey(tt.candidate, tt.reference); got != tt.want {
				t.Errorf("VerifyAPIKey(%q, %q) = %v, want %v", tt.candidate, tt.reference, got, tt.want)
			}
		})
	}
}

func TestQuickHash_Deterministic(t *testing.T) {
	t.Parallel()

	input := "eyJhbGciOiJIUzI1NiJ9.some.token"

	if QuickHash(input) != QuickHash(input) {
		t.Error("same input should produce same hash")
	}
}

func TestQuickHash_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"token", "eyJhbGciOiJIUzI1NiJ9.some.token"},
		{"short string", "abc"},
		{"empty string", ""},
		{"long string", strings.Repeat("x", 1000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := QuickHash(tt.input); len(got) != 32 {
				t.Errorf("hash should be 32 chars, got: %d", len(got))
			}
		})
	}
}

func TestQuickHash_Different(t *testing.T) {
	t.Parallel()

	if QuickHash("input-one") == QuickHash("input-two") {
		t.Error("different input should produce different hash")
	}
}
