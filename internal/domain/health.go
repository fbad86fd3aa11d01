package domain

import "time"

// HealthStatus summarises the state of a dependency probe.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// SystemHealthCheck is the outcome of a single dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus  `json:"status"`
	Detail    string        `json:"detail,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latencyMs"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// SystemHealthReport aggregates dependency probes for readiness endpoints.
type SystemHealthReport struct {
	Status      HealthStatus                 `json:"status"`
	Checks      map[string]SystemHealthCheck `json:"checks"`
	GeneratedAt time.Time                    `json:"generatedAt"`
}
