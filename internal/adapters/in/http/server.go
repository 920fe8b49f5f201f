// Package http exposes the job control and status endpoints over echo.
package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/domain/model/notification"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the uniform error body returned by every endpoint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RunResponse reports the outcome of a manually triggered job run.
type RunResponse struct {
	Job        string  `json:"job"`
	Status     string  `json:"status"`
	DurationMs float64 `json:"durationMs"`
}

// NotificationsStatus summarizes the pending notification queue.
type NotificationsStatus struct {
	Pending    int                           `json:"pending"`
	ByType     map[notification.Type]int     `json:"byType"`
	ByPriority map[notification.Priority]int `json:"byPriority"`
}

// Dashboard aggregates the individual status endpoints into one payload.
type Dashboard struct {
	Scheduler     jobs.SchedulerStatus `json:"scheduler"`
	Deliveries    map[string]int64     `json:"deliveriesByStatus"`
	Health        any                  `json:"health"`
	Metrics       any                  `json:"metrics"`
	Notifications NotificationsStatus  `json:"notifications"`
}

// Server handles the HTTP surface of the job subsystem: job control,
// per-job status, and the monitoring read endpoints.
type Server struct {
	scheduler  *jobs.Scheduler
	deliveries ports.DeliveryRepository
	queue      ports.NotificationStore
	metrics    ports.MetricsStore
	health     ports.HealthStore
}

// NewServer creates a new HTTP server over the scheduler, the delivery
// repository, and the stores.
func NewServer(
	scheduler *jobs.Scheduler,
	deliveries ports.DeliveryRepository,
	queue ports.NotificationStore,
	metrics ports.MetricsStore,
	health ports.HealthStore,
) *Server {
	return &Server{
		scheduler:  scheduler,
		deliveries: deliveries,
		queue:      queue,
		metrics:    metrics,
		health:     health,
	}
}

// RegisterRoutes binds all endpoints under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.GET("/jobs", s.GetJobs)
	v1.GET("/jobs/:name", s.GetJob)
	v1.POST("/jobs/start", s.StartJobs)
	v1.POST("/jobs/stop", s.StopJobs)
	v1.POST("/jobs/:name/run", s.RunJob)
	v1.GET("/status/health", s.GetHealth)
	v1.GET("/status/performance", s.GetPerformance)
	v1.GET("/status/notifications", s.GetNotifications)
	v1.GET("/status/dashboard", s.GetDashboard)
}

// GetJobs handles GET /api/v1/jobs - retrieves the full scheduler status.
func (s *Server) GetJobs(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.scheduler.Status())
}

// GetJob handles GET /api/v1/jobs/:name - retrieves one job's status.
func (s *Server) GetJob(ctx echo.Context) error {
	name := ctx.Param("name")
	status, ok := s.scheduler.Status().Jobs[name]
	if !ok {
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Unknown job: " + name,
		})
	}
	return ctx.JSON(http.StatusOK, status)
}

// StartJobs handles POST /api/v1/jobs/start - activates all triggers.
func (s *Server) StartJobs(ctx echo.Context) error {
	if err := s.scheduler.StartAll(); err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to start jobs: " + err.Error(),
		})
	}
	return ctx.JSON(http.StatusOK, s.scheduler.Status())
}

// StopJobs handles POST /api/v1/jobs/stop - cancels all triggers.
func (s *Server) StopJobs(ctx echo.Context) error {
	s.scheduler.StopAll()
	return ctx.JSON(http.StatusOK, s.scheduler.Status())
}

// RunJob handles POST /api/v1/jobs/:name/run - fires one job immediately.
// An unknown name is 404, an already running job is 409, and a run that
// failed reports 500 with the job's error.
func (s *Server) RunJob(ctx echo.Context) error {
	name := ctx.Param("name")

	duration, err := s.scheduler.RunOnce(ctx.Request().Context(), name)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Unknown job: " + name,
		})
	case errors.Is(err, errs.ErrValueIsInvalid):
		return ctx.JSON(http.StatusConflict, Error{
			Code:    http.StatusConflict,
			Message: "Job is already running: " + name,
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Job failed: " + err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, RunResponse{
		Job:        name,
		Status:     "completed",
		DurationMs: float64(duration.Milliseconds()),
	})
}

// GetHealth handles GET /api/v1/status/health - returns the last health
// snapshot written by the health check job.
func (s *Server) GetHealth(ctx echo.Context) error {
	snapshot, err := s.health.Current(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to read health status",
		})
	}
	if snapshot == nil {
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "No health snapshot recorded yet",
		})
	}
	return ctx.JSON(http.StatusOK, snapshot)
}

// GetPerformance handles GET /api/v1/status/performance - returns the latest
// metrics snapshot and the rolling summary.
func (s *Server) GetPerformance(ctx echo.Context) error {
	latest, err := s.metrics.Latest(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to read metrics",
		})
	}
	summary, err := s.metrics.Summary(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to read metrics summary",
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"latest":  latest,
		"summary": summary,
	})
}

// GetNotifications handles GET /api/v1/status/notifications - summarizes the
// pending queue by type and priority.
func (s *Server) GetNotifications(ctx echo.Context) error {
	status, err := s.notificationsStatus(ctx)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to read pending notifications",
		})
	}
	return ctx.JSON(http.StatusOK, status)
}

// GetDashboard handles GET /api/v1/status/dashboard - aggregates scheduler,
// health, metrics, and queue state into one payload. Missing snapshots come
// back null rather than failing the whole dashboard.
func (s *Server) GetDashboard(ctx echo.Context) error {
	dashboard := Dashboard{Scheduler: s.scheduler.Status()}

	if counts, err := s.deliveries.CountByStatus(ctx.Request().Context()); err == nil {
		byStatus := make(map[string]int64, len(counts))
		for status, count := range counts {
			byStatus[status.String()] = count
		}
		dashboard.Deliveries = byStatus
	}
	if snapshot, err := s.health.Current(ctx.Request().Context()); err == nil && snapshot != nil {
		dashboard.Health = snapshot
	}
	if latest, err := s.metrics.Latest(ctx.Request().Context()); err == nil && latest != nil {
		dashboard.Metrics = latest
	}
	if status, err := s.notificationsStatus(ctx); err == nil {
		dashboard.Notifications = status
	}
	return ctx.JSON(http.StatusOK, dashboard)
}

func (s *Server) notificationsStatus(ctx echo.Context) (NotificationsStatus, error) {
	pending, err := s.queue.Pending(ctx.Request().Context())
	if err != nil {
		return NotificationsStatus{}, err
	}

	status := NotificationsStatus{
		Pending:    len(pending),
		ByType:     make(map[notification.Type]int),
		ByPriority: make(map[notification.Priority]int),
	}
	for _, rec := range pending {
		status.ByType[rec.Type]++
		status.ByPriority[rec.Priority]++
	}
	return status, nil
}
