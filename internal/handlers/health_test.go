package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
)

type stubSystemService struct {
	report domain.SystemHealthReport
	err    error
}

func (s *stubSystemService) Health(context.Context) (domain.SystemHealthReport, error) {
	return s.report, s.err
}

func TestHealthHandlersHealthz(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Second)
	handlers := NewHealthHandlers(
		WithHealthStartedAt(start),
		WithHealthClock(func() time.Time { return now }),
		WithHealthEnvironment("prod"),
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	handlers.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["status"] != string(domain.HealthStatusOK) {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["uptime"] != "30s" {
		t.Fatalf("expected uptime 30s, got %v", body["uptime"])
	}
	if body["environment"] != "prod" {
		t.Fatalf("expected environment prod, got %v", body["environment"])
	}
}

func TestHealthHandlersReadyzSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC)
	svc := &stubSystemService{
		report: domain.SystemHealthReport{
			Status:      domain.HealthStatusOK,
			GeneratedAt: now,
			Checks: map[string]domain.SystemHealthCheck{
				"firestore": {Status: domain.HealthStatusOK},
			},
		},
	}
	handlers := NewHealthHandlers(WithHealthSystemService(svc))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var report domain.SystemHealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if report.Checks["firestore"].Status != domain.HealthStatusOK {
		t.Fatalf("expected firestore check ok, got %+v", report.Checks)
	}
}

func TestHealthHandlersReadyzDegradedStillReady(t *testing.T) {
	svc := &stubSystemService{
		report: domain.SystemHealthReport{
			Status: domain.HealthStatusDegraded,
			Checks: map[string]domain.SystemHealthCheck{
				"geocoder": {Status: domain.HealthStatusError, Error: "timeout"},
			},
		},
	}
	handlers := NewHealthHandlers(WithHealthSystemService(svc))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected degraded to stay ready, got %d", rr.Code)
	}
}

func TestHealthHandlersReadyzError(t *testing.T) {
	svc := &stubSystemService{
		report: domain.SystemHealthReport{Status: domain.HealthStatusError},
	}
	handlers := NewHealthHandlers(WithHealthSystemService(svc))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	handlers.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestHealthHandlersReadyzCollectFailure(t *testing.T) {
	svc := &stubSystemService{err: errors.New("firestore unreachable")}
	handlers := NewHealthHandlers(WithHealthSystemService(svc))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	handlers.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if payload["error"] != "health_check_failed" {
		t.Fatalf("expected health_check_failed, got %v", payload["error"])
	}
}

func TestHealthHandlersReadyzWithoutSystemService(t *testing.T) {
	handlers := NewHealthHandlers()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
