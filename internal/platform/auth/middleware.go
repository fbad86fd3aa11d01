package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// SessionVerifier checks a bearer token and returns the owner subject.
type SessionVerifier interface {
	Verify(token string) (string, error)
}

type contextKey string

const ownerContextKey contextKey = "github.com/ShivaNagula00/toddy-orders/internal/platform/auth/owner"

// WithOwner stores the authenticated owner subject within the context.
func WithOwner(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ownerContextKey, subject)
}

// OwnerFromContext retrieves the owner subject previously stored in context.
func OwnerFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(ownerContextKey).(string)
	if !ok || subject == "" {
		return "", false
	}
	return subject, true
}

// RequireOwner verifies the Authorization bearer token before admitting
// dashboard requests.
func RequireOwner(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if verifier == nil {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization service unavailable")
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				respondVerificationError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), subject)))
		})
	}
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
		"status":  status,
	})
}

func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionExpired):
		respondAuthError(w, http.StatusUnauthorized, "session_expired", "session token expired")
	default:
		respondAuthError(w, http.StatusUnauthorized, "invalid_session", "session token invalid")
	}
}
