package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cardmaker/cardmaker/internal/handler/dto"
	"github.com/cardmaker/cardmaker/internal/metrics"
	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
	"github.com/cardmaker/cardmaker/internal/service"
	"github.com/cardmaker/cardmaker/internal/token"
)

// memUserStore implements service.UserStore and token.UserResolver.
type memUserStore struct {
	byName map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byName: make(map[string]*model.User)}
}

func (s *memUserStore) GetUserByName(_ context.Context, username string) (*model.User, error) {
	user, ok := s.byName[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := s.byName[user.Username]; ok {
		return repository.ErrUsernameExists
	}
	copied := *user
	s.byName[copied.Username] = &copied
	return nil
}

func (s *memUserStore) ListUsers(_ context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0, len(s.byName))
	for _, user := range s.byName {
		users = append(users, user)
	}
	return users, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserHandler(apiKey string) (*UserHandler, *memUserStore) {
	store := newMemUserStore()
	tokens := token.NewService("test-secret", store)
	svc := service.NewAuthService(store, tokens, apiKey, time.Hour, testLogger(), metrics.NewNoop())
	return NewUserHandler(svc, testLogger()), store
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestUserHandler_Register(t *testing.T) {
	h, store := newTestUserHandler("reg-key")

	rec := postJSON(t, h.Register, "/api/v1/users", dto.RegisterUserRequest{
		Username: "alice",
		Password: "hunter2",
		APIKey:   "reg-key",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.Username)
	}
	if resp.Anonymous {
		t.Error("registered user marked anonymous")
	}

	// The password hash must never leak into the response body.
	stored := store.byName["alice"]
	if strings.Contains(rec.Body.String(), stored.HashedPassword) {
		t.Error("response leaks the password hash")
	}
}

func TestUserHandler_RegisterErrors(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		req        dto.RegisterUserRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrong api key",
			apiKey:     "reg-key",
			req:        dto.RegisterUserRequest{Username: "alice", Password: "pw", APIKey: "wrong"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_API_KEY",
		},
		{
			name:       "registration disabled",
			apiKey:     "",
			req:        dto.RegisterUserRequest{Username: "alice", Password: "pw", APIKey: "anything"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "REGISTRATION_DISABLED",
		},
		{
			name:       "reserved username",
			apiKey:     "reg-key",
			req:        dto.RegisterUserRequest{Username: "Anonymous", Password: "pw", APIKey: "reg-key"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_USERNAME",
		},
		{
			name:       "missing password",
			apiKey:     "reg-key",
			req:        dto.RegisterUserRequest{Username: "alice", APIKey: "reg-key"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestUserHandler(tt.apiKey)

			rec := postJSON(t, h.Register, "/api/v1/users", tt.req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestUserHandler_RegisterDuplicate(t *testing.T) {
	h, _ := newTestUserHandler("reg-key")

	req := dto.RegisterUserRequest{Username: "alice", Password: "pw", APIKey: "reg-key"}
	if rec := postJSON(t, h.Register, "/api/v1/users", req); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec := postJSON(t, h.Register, "/api/v1/users", req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestUserHandler_Login(t *testing.T) {
	h, _ := newTestUserHandler("reg-key")

	register := dto.RegisterUserRequest{Username: "alice", Password: "hunter2", APIKey: "reg-key"}
	if rec := postJSON(t, h.Register, "/api/v1/users", register); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec := postJSON(t, h.Login, "/api/v1/token", dto.LoginRequest{
		Username: "alice",
		Password: "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token is empty")
	}
	if resp.TokenType != model.TokenTypeBearer {
		t.Errorf("token type = %q, want bearer", resp.TokenType)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Errorf("token already expired: %v", resp.ExpiresAt)
	}
}

func TestUserHandler_LoginForm(t *testing.T) {
	h, _ := newTestUserHandler("reg-key")

	register := dto.RegisterUserRequest{Username: "alice", Password: "hunter2", APIKey: "reg-key"}
	if rec := postJSON(t, h.Register, "/api/v1/users", register); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	form := url.Values{"username": {"alice"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("form login status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_LoginFailure(t *testing.T) {
	h, _ := newTestUserHandler("reg-key")

	register := dto.RegisterUserRequest{Username: "alice", Password: "hunter2", APIKey: "reg-key"}
	if rec := postJSON(t, h.Register, "/api/v1/users", register); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{name: "wrong password", req: dto.LoginRequest{Username: "alice", Password: "nope"}},
		{name: "unknown user", req: dto.LoginRequest{Username: "bob", Password: "hunter2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, "/api/v1/token", tt.req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			// Unknown user and bad password must be indistinguishable.
			var resp dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != "INVALID_CREDENTIALS" {
				t.Errorf("code = %q, want INVALID_CREDENTIALS", resp.Code)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	h, _ := newTestUserHandler("reg-key")

	register := dto.RegisterUserRequest{Username: "alice", Password: "pw", APIKey: "reg-key"}
	if rec := postJSON(t, h.Register, "/api/v1/users", register); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	body := rec.Body.String()
	var resp dto.PublicUserListResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Username != "alice" {
		t.Errorf("unexpected listing: %s", body)
	}
	if strings.Contains(body, "password") || strings.Contains(body, "salt") {
		t.Error("listing leaks credential fields")
	}
}
