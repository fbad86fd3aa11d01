package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandlers exposes the owner dashboard login endpoint.
type AuthHandlers struct {
	settings services.SettingsService
	limiter  rateLimiter
}

// AuthOption customises the auth handlers.
type AuthOption func(*AuthHandlers)

// WithLoginRateLimit throttles login attempts per client address.
func WithLoginRateLimit(limit int, window time.Duration, clock func() time.Time) AuthOption {
	return func(h *AuthHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, clock)
	}
}

// NewAuthHandlers constructs a new AuthHandlers instance.
func NewAuthHandlers(settings services.SettingsService, opts ...AuthOption) *AuthHandlers {
	h := &AuthHandlers{settings: settings}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /auth endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("too_many_attempts", "too many login attempts, try again later", http.StatusTooManyRequests))
		return
	}

	var req loginRequest
	if err := decodeJSONRequest(w, r, &req); err != nil {
		writeInvalidRequest(r, w, err.Error())
		return
	}

	session, err := h.settings.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeLoginError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, session)
}

func writeLoginError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrLoginInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid username or password", http.StatusUnauthorized))
	case errors.Is(err, services.ErrSettingsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case isRepositoryUnavailable(err):
		httpx.WriteError(ctx, w, httpx.NewError("settings_service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
