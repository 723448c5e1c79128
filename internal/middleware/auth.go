package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardmaker/cardmaker/internal/auth"
	"github.com/cardmaker/cardmaker/internal/metrics"
	"github.com/cardmaker/cardmaker/internal/model"
)

// TokenVerifier verifies a bearer token and resolves its user.
// token.Service implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*model.User, time.Time, error)
}

// AuthCache caches verified tokens so repeated requests skip signature
// verification and the user lookup. cache.Cache implements it.
type AuthCache interface {
	GetAuthUser(ctx context.Context, cacheKey string) (*model.User, error)
	SetAuthUser(ctx context.Context, cacheKey string, user *model.User, tokenExpiresAt time.Time) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  TokenVerifier
	Cache   AuthCache // optional
	Metrics metrics.Recorder
}

// Auth returns a middleware that authenticates requests with a bearer
// token. The verified user is injected into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Check cache first
			cacheKey := auth.QuickHash(tokenString)
			if cfg.Cache != nil {
				if user, _ := cfg.Cache.GetAuthUser(r.Context(), cacheKey); user != nil {
					recorder.IncAuthCacheHit()
					ctx := auth.ContextWithUser(r.Context(), user)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				recorder.IncAuthCacheMiss()
			}

			user, expiresAt, err := cfg.Tokens.Verify(r.Context(), tokenString)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetAuthUser(r.Context(), cacheKey, user, expiresAt); err != nil {
					cfg.Logger.Warn("failed to cache verified token",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
			}

			cfg.Logger.Info("authentication successful",
				slog.String("user_id", user.ID),
				slog.String("username", user.Username),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing bearer token"}}`))
}
