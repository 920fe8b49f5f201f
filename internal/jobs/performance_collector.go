package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"dispatch/internal/core/domain/model/monitoring"
	"dispatch/internal/core/ports"

	"github.com/WatchBeam/clock"
	"github.com/shirou/gopsutil/v4/process"
)

// Alert rule thresholds for the performance collector.
const (
	memoryWarningMB  = 512
	memoryCriticalMB = 1024
	queryWarningMs   = 1000
	backlogWarning   = 100
	storeSizeInfoMB  = 1000
	bytesPerMB       = 1024 * 1024
)

// CollectorResult is the structured outcome of one metrics collection run.
type CollectorResult struct {
	Snapshot monitoring.MetricsSnapshot `json:"metrics"`
	Message  string                     `json:"message"`
}

// PerformanceCollector samples process, store, and application metrics,
// evaluates the fixed alert rules, and appends the snapshot to the dated
// metrics log and the rolling summary.
type PerformanceCollector struct {
	deliveries ports.DeliveryRepository
	couriers   ports.CourierRepository
	users      ports.UserRepository
	queue      ports.NotificationStore
	store      ports.StoreStatsProvider
	metrics    ports.MetricsStore
	startedAt  time.Time
	clk        clock.Clock
	logger     *slog.Logger
}

// NewPerformanceCollector creates the metrics collection job. Uptime is
// measured from the moment of construction.
func NewPerformanceCollector(
	deliveries ports.DeliveryRepository,
	couriers ports.CourierRepository,
	users ports.UserRepository,
	queue ports.NotificationStore,
	store ports.StoreStatsProvider,
	metrics ports.MetricsStore,
	clk clock.Clock,
	logger *slog.Logger,
) *PerformanceCollector {
	return &PerformanceCollector{
		deliveries: deliveries,
		couriers:   couriers,
		users:      users,
		queue:      queue,
		store:      store,
		metrics:    metrics,
		startedAt:  clk.Now(),
		clk:        clk,
		logger:     logger.With("component", "performance_collector"),
	}
}

func (j *PerformanceCollector) runJob(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one collection pass. Individual probe failures degrade the
// snapshot (zero values, disconnected store) instead of failing the run;
// only a failed append to the metrics log is an error.
func (j *PerformanceCollector) Run(ctx context.Context) (*CollectorResult, error) {
	started := j.clk.Now()

	snapshot := monitoring.MetricsSnapshot{
		Timestamp: started,
		System:    j.systemMetrics(ctx),
		Database:  j.databaseMetrics(ctx),
	}
	// The timed count probes double as the store's collection counters.
	app, deliveries, couriers, users := j.applicationMetrics(ctx)
	snapshot.Application = app
	snapshot.Database.Deliveries = deliveries
	snapshot.Database.Couriers = couriers
	snapshot.Database.Users = users

	snapshot.Alerts = evaluateAlerts(snapshot)
	snapshot.JobExecutionMs = float64(j.clk.Now().Sub(started)) / float64(time.Millisecond)

	if err := j.metrics.Append(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("append metrics snapshot: %w", err)
	}

	message := fmt.Sprintf("collected %d alert(s)", len(snapshot.Alerts))
	j.logger.InfoContext(ctx, "Performance metrics collected",
		"memoryMb", snapshot.System.MemoryMB,
		"avgQueryMs", snapshot.Application.AvgQueryMs,
		"alerts", len(snapshot.Alerts))
	return &CollectorResult{Snapshot: snapshot, Message: message}, nil
}

func (j *PerformanceCollector) systemMetrics(ctx context.Context) monitoring.SystemMetrics {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := monitoring.SystemMetrics{
		HeapMB:        float64(memStats.HeapAlloc) / bytesPerMB,
		UptimeSeconds: j.clk.Now().Sub(j.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		j.logger.WarnContext(ctx, "Process metrics unavailable", "error", err)
		metrics.MemoryMB = metrics.HeapMB
		return metrics
	}
	if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
		metrics.MemoryMB = float64(memInfo.RSS) / bytesPerMB
	} else {
		metrics.MemoryMB = metrics.HeapMB
	}
	if cpuPercent, err := proc.CPUPercentWithContext(ctx); err == nil {
		metrics.CPUPercent = cpuPercent
	}
	return metrics
}

func (j *PerformanceCollector) databaseMetrics(ctx context.Context) monitoring.DatabaseMetrics {
	stats, err := j.store.Stats(ctx)
	if err != nil {
		j.logger.WarnContext(ctx, "Store statistics unavailable", "error", err)
		return monitoring.DatabaseMetrics{Connected: false}
	}
	return monitoring.DatabaseMetrics{
		Connected:       stats.Connected,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		SizeMB:          stats.SizeMB,
	}
}

// timedCount runs a count query and reports its latency; the probe is both a
// metric and a responsiveness check.
func (j *PerformanceCollector) timedCount(ctx context.Context, count func(context.Context) (int64, error)) (int64, float64) {
	started := j.clk.Now()
	n, err := count(ctx)
	elapsed := float64(j.clk.Now().Sub(started)) / float64(time.Millisecond)
	if err != nil {
		j.logger.WarnContext(ctx, "Count probe failed", "error", err)
		return -1, elapsed
	}
	return n, elapsed
}

func (j *PerformanceCollector) applicationMetrics(ctx context.Context) (monitoring.ApplicationMetrics, int64, int64, int64) {
	deliveries, deliveryMs := j.timedCount(ctx, j.deliveries.Count)
	couriers, courierMs := j.timedCount(ctx, j.couriers.Count)
	users, userMs := j.timedCount(ctx, j.users.Count)

	metrics := monitoring.ApplicationMetrics{
		DeliveryQueryMs: deliveryMs,
		CourierQueryMs:  courierMs,
		UserQueryMs:     userMs,
		AvgQueryMs:      (deliveryMs + courierMs + userMs) / 3,
	}

	pending, err := j.queue.Pending(ctx)
	if err != nil {
		j.logger.WarnContext(ctx, "Pending notification count unavailable", "error", err)
	} else {
		metrics.PendingNotifications = len(pending)
	}
	return metrics, deliveries, couriers, users
}

// evaluateAlerts applies the fixed alert rule set to a snapshot.
func evaluateAlerts(s monitoring.MetricsSnapshot) []monitoring.Alert {
	var alerts []monitoring.Alert

	switch {
	case s.System.MemoryMB > memoryCriticalMB:
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertCritical,
			Rule:    "memory",
			Message: fmt.Sprintf("process memory %.0fMB exceeds %dMB", s.System.MemoryMB, memoryCriticalMB),
		})
	case s.System.MemoryMB > memoryWarningMB:
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertWarning,
			Rule:    "memory",
			Message: fmt.Sprintf("process memory %.0fMB exceeds %dMB", s.System.MemoryMB, memoryWarningMB),
		})
	}

	if !s.Database.Connected {
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertCritical,
			Rule:    "database",
			Message: "store is disconnected",
		})
	}

	if s.Application.AvgQueryMs > queryWarningMs {
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertWarning,
			Rule:    "queryTime",
			Message: fmt.Sprintf("average query time %.0fms exceeds %dms", s.Application.AvgQueryMs, queryWarningMs),
		})
	}

	if s.Application.PendingNotifications > backlogWarning {
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertWarning,
			Rule:    "notificationBacklog",
			Message: fmt.Sprintf("%d pending notifications exceed %d", s.Application.PendingNotifications, backlogWarning),
		})
	}

	if s.Database.SizeMB > storeSizeInfoMB {
		alerts = append(alerts, monitoring.Alert{
			Level:   monitoring.AlertInfo,
			Rule:    "storeSize",
			Message: fmt.Sprintf("store size %.0fMB exceeds %dMB", s.Database.SizeMB, storeSizeInfoMB),
		})
	}

	return alerts
}
