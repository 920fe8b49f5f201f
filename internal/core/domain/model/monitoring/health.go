package monitoring

import "time"

// HealthStatus is the aggregated health verdict for the whole process.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusError marks a snapshot the checker itself failed to assemble.
	StatusError HealthStatus = "error"
)

// Probe names used as keys in HealthSnapshot.Checks.
const (
	CheckDatabase       = "database"
	CheckMemory         = "memory"
	CheckDisk           = "disk"
	CheckApplication    = "application"
	CheckBackgroundJobs = "backgroundJobs"
)

// CheckResult is the outcome of a single health probe.
type CheckResult struct {
	Healthy   bool    `json:"healthy"`
	LatencyMs float64 `json:"latencyMs,omitempty"`
	Detail    string  `json:"detail,omitempty"`
}

// HealthSnapshot is one full health evaluation. Snapshots are appended to a
// dated history (capped per day) and mirrored into a single current record.
type HealthSnapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Status    HealthStatus           `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Issues    []string               `json:"issues,omitempty"`
}

// Aggregate computes the overall status from the individual probes:
// unhealthy if any of database/memory/disk/application failed, degraded if
// only the background-jobs probe failed, healthy otherwise.
func Aggregate(checks map[string]CheckResult) HealthStatus {
	for _, name := range []string{CheckDatabase, CheckMemory, CheckDisk, CheckApplication} {
		if result, ok := checks[name]; ok && !result.Healthy {
			return StatusUnhealthy
		}
	}
	if result, ok := checks[CheckBackgroundJobs]; ok && !result.Healthy {
		return StatusDegraded
	}
	return StatusHealthy
}
