package handlers

import (
	"net/http"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/platform/httpx"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

// HealthHandlers exposes liveness and readiness probes for the HTTP server.
type HealthHandlers struct {
	system      services.SystemService
	clock       func() time.Time
	startedAt   time.Time
	environment string
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers builds probe handlers; a system service is optional for liveness.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:     func() time.Time { return time.Now().UTC() },
		startedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithHealthSystemService wires the service consulted by the readiness probe.
func WithHealthSystemService(system services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = system
	}
}

// WithHealthClock overrides the time source used in probe payloads.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthStartedAt records the process start used for uptime reporting.
func WithHealthStartedAt(startedAt time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if !startedAt.IsZero() {
			h.startedAt = startedAt
		}
	}
}

// WithHealthEnvironment tags probe payloads with the deployment environment.
func WithHealthEnvironment(environment string) HealthOption {
	return func(h *HealthHandlers) {
		h.environment = environment
	}
}

// Healthz reports process liveness without touching downstream dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.environment != "" {
		payload["environment"] = h.environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz probes downstream dependencies via the system service.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"status":    domain.HealthStatusOK,
			"timestamp": h.clock().Format(time.RFC3339),
		})
		return
	}

	report, err := h.system.Health(r.Context())
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("health_check_failed", "failed to collect health report", http.StatusServiceUnavailable))
		return
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, report)
}
