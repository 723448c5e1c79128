package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cardmaker/cardmaker/internal/auth"
	"github.com/cardmaker/cardmaker/internal/model"
)

type fakeVerifier struct {
	user    *model.User
	expiry  time.Time
	err     error
	calls   int
	lastTok string
}

func (f *fakeVerifier) Verify(_ context.Context, tokenString string) (*model.User, time.Time, error) {
	f.calls++
	f.lastTok = tokenString
	if f.err != nil {
		return nil, time.Time{}, f.err
	}
	return f.user, f.expiry, nil
}

type fakeAuthCache struct {
	entries map[string]*model.User
	sets    int
	lastTTL time.Time
}

func newFakeAuthCache() *fakeAuthCache {
	return &fakeAuthCache{entries: make(map[string]*model.User)}
}

func (f *fakeAuthCache) GetAuthUser(_ context.Context, cacheKey string) (*model.User, error) {
	return f.entries[cacheKey], nil
}

func (f *fakeAuthCache) SetAuthUser(_ context.Context, cacheKey string, user *model.User, tokenExpiresAt time.Time) error {
	f.sets++
	f.lastTTL = tokenExpiresAt
	f.entries[cacheKey] = user
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoUserHandler(t *testing.T, want *model.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		if user == nil {
			t.Error("expected user in context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if want != nil && user.ID != want.ID {
			t.Errorf("context user = %s, want %s", user.ID, want.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "u-1", Username: "alice"}
	verifier := &fakeVerifier{user: user, expiry: time.Now().Add(time.Hour)}

	mw := Auth(AuthConfig{Logger: testLogger(), Tokens: verifier})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	mw(echoUserHandler(t, user)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if verifier.lastTok != "some-token" {
		t.Errorf("verifier got token %q", verifier.lastTok)
	}
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bare token", "some-token"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &fakeVerifier{user: &model.User{ID: "u-1"}, expiry: time.Now().Add(time.Hour)}
			mw := Auth(AuthConfig{Logger: testLogger(), Tokens: verifier})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			called := false
			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler must not run without a valid header")
			}
			if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{err: errors.New("bad signature")}
	mw := Auth(AuthConfig{Logger: testLogger(), Tokens: verifier})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cards/c-1", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestAuth_CachePopulatedAndUsed(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "u-2", Username: "bob"}
	expiry := time.Now().Add(time.Hour)
	verifier := &fakeVerifier{user: user, expiry: expiry}
	cache := newFakeAuthCache()

	mw := Auth(AuthConfig{Logger: testLogger(), Tokens: verifier, Cache: cache})
	handler := mw(echoUserHandler(t, user))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", nil)
		req.Header.Set("Authorization", "Bearer cached-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
	if verifier.calls != 1 || cache.sets != 1 {
		t.Fatalf("after miss: verifier calls = %d, cache sets = %d", verifier.calls, cache.sets)
	}
	if !cache.lastTTL.Equal(expiry) {
		t.Errorf("cache received expiry %v, want %v", cache.lastTTL, expiry)
	}

	// Second request is served from the cache.
	if code := send(); code != http.StatusOK {
		t.Fatalf("second request status = %d", code)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier called %d times, want 1", verifier.calls)
	}

	if cache.entries[auth.QuickHash("cached-token")] == nil {
		t.Error("cache key should be the token's quick hash")
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer  abc", "abc"},
		{"Token abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
