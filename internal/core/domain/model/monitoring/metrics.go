package monitoring

import "time"

// Alert levels produced by the performance collector's rule set.
const (
	AlertInfo     = "INFO"
	AlertWarning  = "WARNING"
	AlertCritical = "CRITICAL"
)

// Alert is one triggered alert rule.
type Alert struct {
	Level   string `json:"level"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// SystemMetrics covers the process itself.
type SystemMetrics struct {
	MemoryMB      float64 `json:"memoryMb"`
	HeapMB        float64 `json:"heapMb"`
	CPUPercent    float64 `json:"cpuPercent"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Goroutines    int     `json:"goroutines"`
}

// DatabaseMetrics covers the backing store.
type DatabaseMetrics struct {
	Connected       bool    `json:"connected"`
	OpenConnections int     `json:"openConnections"`
	InUse           int     `json:"inUse"`
	SizeMB          float64 `json:"sizeMb"`
	Deliveries      int64   `json:"deliveries"`
	Couriers        int64   `json:"couriers"`
	Users           int64   `json:"users"`
}

// ApplicationMetrics covers query latency probes and queue backlog.
type ApplicationMetrics struct {
	DeliveryQueryMs      float64 `json:"deliveryQueryMs"`
	CourierQueryMs       float64 `json:"courierQueryMs"`
	UserQueryMs          float64 `json:"userQueryMs"`
	AvgQueryMs           float64 `json:"avgQueryMs"`
	PendingNotifications int     `json:"pendingNotifications"`
}

// MetricsSnapshot is one full performance sample. Snapshots are appended to a
// dated log (capped per day) and folded into the RollingSummary.
type MetricsSnapshot struct {
	Timestamp      time.Time          `json:"timestamp"`
	System         SystemMetrics      `json:"system"`
	Database       DatabaseMetrics    `json:"database"`
	Application    ApplicationMetrics `json:"application"`
	Alerts         []Alert            `json:"alerts,omitempty"`
	JobExecutionMs float64            `json:"jobExecutionMs"`
}
