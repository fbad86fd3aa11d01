package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

type stubHealthRepository struct {
	report domain.SystemHealthReport
	err    error
	calls  int
}

func (s *stubHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	s.calls++
	return s.report, s.err
}

var _ repositories.HealthRepository = (*stubHealthRepository)(nil)

func TestSystemServiceHealthPassesThroughReport(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHealthRepository{
		report: domain.SystemHealthReport{
			Status:      domain.HealthStatusDegraded,
			GeneratedAt: now,
			Checks: map[string]domain.SystemHealthCheck{
				"firestore": {Status: domain.HealthStatusOK},
				"geocoder":  {Status: domain.HealthStatusDegraded},
			},
		},
	}

	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("status = %s, want degraded", report.Status)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("generatedAt = %s", report.GeneratedAt)
	}
	if repo.calls != 1 {
		t.Fatalf("collect called %d times", repo.calls)
	}
}

func TestSystemServiceHealthFillsDefaults(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHealthRepository{report: domain.SystemHealthReport{}}

	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: repo,
		Clock:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("status = %s, want ok", report.Status)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("generatedAt = %s, want clock time", report.GeneratedAt)
	}
	if report.Checks == nil {
		t.Fatal("checks map not initialised")
	}
}

func TestSystemServiceHealthErrors(t *testing.T) {
	expected := errors.New("collect failed")
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: &stubHealthRepository{err: expected}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	if _, err := svc.Health(context.Background()); !errors.Is(err, expected) {
		t.Fatalf("got %v, want %v", err, expected)
	}
}

func TestNewSystemServiceRequiresRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatal("expected error when repository missing")
	}
}
