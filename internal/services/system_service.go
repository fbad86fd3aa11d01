package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
}

type systemService struct {
	healthRepo repositories.HealthRepository
	clock      func() time.Time
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the system utility service providing health reports.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &systemService{
		healthRepo: deps.HealthRepository,
		clock:      func() time.Time { return clock().UTC() },
	}, nil
}

func (s *systemService) Health(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("system service: context is required")
	}

	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return domain.SystemHealthReport{}, err
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = s.clock()
	}
	if len(report.Checks) == 0 {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if report.Status == "" {
		report.Status = domain.HealthStatusOK
	}
	return report, nil
}
