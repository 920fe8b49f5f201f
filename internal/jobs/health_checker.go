package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/monitoring"
	"dispatch/internal/core/ports"

	"github.com/WatchBeam/clock"
)

// Health probe thresholds.
const (
	pingUnhealthyMs     = 1000
	queryUnhealthyMs    = 500
	heapRatioUnhealthy  = 0.80
	heapRatioWarning    = 0.60
	recentErrorWindow   = time.Hour
	healthProbeFileName = ".healthcheck"
)

// StatusSource exposes the scheduler's registry state to the background-jobs
// probe. The scheduler itself satisfies it; the indirection breaks the
// construction cycle between the two.
type StatusSource interface {
	Status() SchedulerStatus
}

// HealthResult is the structured outcome of one health check run.
type HealthResult struct {
	Health monitoring.HealthSnapshot `json:"health"`
}

// HealthChecker runs five independent probes (store connectivity, process
// memory, disk round-trip, application responsiveness, scheduler state),
// aggregates them into one overall status, and persists the snapshot.
type HealthChecker struct {
	store      ports.StoreStatsProvider
	deliveries ports.DeliveryRepository
	health     ports.HealthStore
	dataDir    string
	clk        clock.Clock
	logger     *slog.Logger

	mu     sync.RWMutex
	source StatusSource
}

// NewHealthChecker creates the health check job. The scheduler status source
// is attached afterwards via SetStatusSource.
func NewHealthChecker(
	store ports.StoreStatsProvider,
	deliveries ports.DeliveryRepository,
	health ports.HealthStore,
	dataDir string,
	clk clock.Clock,
	logger *slog.Logger,
) *HealthChecker {
	return &HealthChecker{
		store:      store,
		deliveries: deliveries,
		health:     health,
		dataDir:    dataDir,
		clk:        clk,
		logger:     logger.With("component", "health_checker"),
	}
}

// SetStatusSource attaches the scheduler whose registry the background-jobs
// probe inspects.
func (j *HealthChecker) SetStatusSource(source StatusSource) {
	j.mu.Lock()
	j.source = source
	j.mu.Unlock()
}

func (j *HealthChecker) runJob(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one health evaluation and persists it. The overall status is
// unhealthy when any core probe fails and degraded when only the
// background-jobs probe fails.
func (j *HealthChecker) Run(ctx context.Context) (*HealthResult, error) {
	now := j.clk.Now()

	checks := map[string]monitoring.CheckResult{
		monitoring.CheckDatabase:       j.checkDatabase(ctx),
		monitoring.CheckMemory:         j.checkMemory(),
		monitoring.CheckDisk:           j.checkDisk(),
		monitoring.CheckApplication:    j.checkApplication(ctx),
		monitoring.CheckBackgroundJobs: j.checkBackgroundJobs(now),
	}

	snapshot := monitoring.HealthSnapshot{
		Timestamp: now,
		Status:    monitoring.Aggregate(checks),
		Checks:    checks,
	}
	for _, name := range []string{
		monitoring.CheckDatabase,
		monitoring.CheckMemory,
		monitoring.CheckDisk,
		monitoring.CheckApplication,
		monitoring.CheckBackgroundJobs,
	} {
		if result := checks[name]; !result.Healthy && result.Detail != "" {
			snapshot.Issues = append(snapshot.Issues, fmt.Sprintf("%s: %s", name, result.Detail))
		}
	}

	if err := j.health.Append(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist health snapshot: %w", err)
	}

	if snapshot.Status != monitoring.StatusHealthy {
		j.logger.WarnContext(ctx, "Health check completed",
			"status", snapshot.Status, "issues", snapshot.Issues)
	} else {
		j.logger.DebugContext(ctx, "Health check completed", "status", snapshot.Status)
	}
	return &HealthResult{Health: snapshot}, nil
}

// checkDatabase pings the store and holds its latency against the threshold.
func (j *HealthChecker) checkDatabase(ctx context.Context) monitoring.CheckResult {
	started := j.clk.Now()
	err := j.store.Ping(ctx)
	latencyMs := float64(j.clk.Now().Sub(started)) / float64(time.Millisecond)

	result := monitoring.CheckResult{LatencyMs: latencyMs}
	switch {
	case err != nil:
		result.Detail = fmt.Sprintf("ping failed: %v", err)
	case latencyMs > pingUnhealthyMs:
		result.Detail = fmt.Sprintf("ping latency %.0fms exceeds %dms", latencyMs, pingUnhealthyMs)
	default:
		result.Healthy = true
	}
	return result
}

// checkMemory holds the heap usage ratio against the 80%/60% thresholds.
// The warning band keeps the probe healthy but notes the elevated usage.
func (j *HealthChecker) checkMemory() monitoring.CheckResult {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	if memStats.HeapSys == 0 {
		return monitoring.CheckResult{Healthy: true}
	}
	ratio := float64(memStats.HeapAlloc) / float64(memStats.HeapSys)

	result := monitoring.CheckResult{}
	switch {
	case ratio >= heapRatioUnhealthy:
		result.Detail = fmt.Sprintf("heap usage %.0f%% exceeds %.0f%%", ratio*100, heapRatioUnhealthy*100)
	case ratio >= heapRatioWarning:
		result.Healthy = true
		result.Detail = fmt.Sprintf("heap usage %.0f%% is elevated", ratio*100)
	default:
		result.Healthy = true
	}
	return result
}

// checkDisk performs a write/delete round-trip in the data directory as a
// proxy for disk health.
func (j *HealthChecker) checkDisk() monitoring.CheckResult {
	if err := os.MkdirAll(j.dataDir, 0o755); err != nil {
		return monitoring.CheckResult{Detail: fmt.Sprintf("data dir unavailable: %v", err)}
	}

	path := filepath.Join(j.dataDir, healthProbeFileName)
	payload := []byte(j.clk.Now().UTC().Format(time.RFC3339Nano))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return monitoring.CheckResult{Detail: fmt.Sprintf("write probe failed: %v", err)}
	}
	if err := os.Remove(path); err != nil {
		return monitoring.CheckResult{Detail: fmt.Sprintf("delete probe failed: %v", err)}
	}
	return monitoring.CheckResult{Healthy: true}
}

// checkApplication times a trivial count query as a responsiveness probe.
func (j *HealthChecker) checkApplication(ctx context.Context) monitoring.CheckResult {
	started := j.clk.Now()
	_, err := j.deliveries.Count(ctx)
	latencyMs := float64(j.clk.Now().Sub(started)) / float64(time.Millisecond)

	result := monitoring.CheckResult{LatencyMs: latencyMs}
	switch {
	case err != nil:
		result.Detail = fmt.Sprintf("query failed: %v", err)
	case latencyMs > queryUnhealthyMs:
		result.Detail = fmt.Sprintf("query latency %.0fms exceeds %dms", latencyMs, queryUnhealthyMs)
	default:
		result.Healthy = true
	}
	return result
}

// checkBackgroundJobs inspects the scheduler: it must be running and no job
// may have failed within the recent error window.
func (j *HealthChecker) checkBackgroundJobs(now time.Time) monitoring.CheckResult {
	j.mu.RLock()
	source := j.source
	j.mu.RUnlock()

	if source == nil {
		return monitoring.CheckResult{Detail: "scheduler not attached"}
	}

	status := source.Status()
	if !status.IsRunning {
		return monitoring.CheckResult{Detail: "scheduler is not running"}
	}

	for name, job := range status.Jobs {
		if job.LastError != nil && now.Sub(job.LastError.Timestamp) <= recentErrorWindow {
			return monitoring.CheckResult{
				Detail: fmt.Sprintf("job %q failed recently: %s", name, job.LastError.Message),
			}
		}
	}
	return monitoring.CheckResult{Healthy: true}
}
