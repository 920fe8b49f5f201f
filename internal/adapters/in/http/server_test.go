package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/filestore"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/monitoring"
	"dispatch/internal/core/domain/model/notification"
	"dispatch/internal/jobs"

	"github.com/WatchBeam/clock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	echo       *echo.Echo
	scheduler  *jobs.Scheduler
	deliveries *stubDeliveryRepository
	queue      *filestore.NotificationStore
	metrics    *filestore.MetricsStore
	health     *filestore.HealthStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	scheduler := jobs.NewScheduler(jobs.JobSet{}, logger, jobs.WithClock(clock.NewMockClock()))
	t.Cleanup(scheduler.StopAll)

	deliveries := &stubDeliveryRepository{}
	queue := filestore.NewNotificationStore(dir)
	metrics := filestore.NewMetricsStore(dir)
	health := filestore.NewHealthStore(dir)

	e := echo.New()
	httpin.NewServer(scheduler, deliveries, queue, metrics, health).RegisterRoutes(e)
	return &serverFixture{
		echo:       e,
		scheduler:  scheduler,
		deliveries: deliveries,
		queue:      queue,
		metrics:    metrics,
		health:     health,
	}
}

// stubDeliveryRepository serves the read-only queries the HTTP surface
// issues; the mutating methods are never reached from the endpoints.
type stubDeliveryRepository struct {
	counts map[delivery.Status]int64
}

func (s *stubDeliveryRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	for _, n := range s.counts {
		total += n
	}
	return total, nil
}

func (s *stubDeliveryRepository) CountByStatus(ctx context.Context) (map[delivery.Status]int64, error) {
	return s.counts, nil
}

func (s *stubDeliveryRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]*delivery.Delivery, error) {
	return nil, nil
}

func (s *stubDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	return nil
}

func (s *stubDeliveryRepository) FindArchivable(ctx context.Context, cutoff time.Time) ([]*delivery.Delivery, error) {
	return nil, nil
}

func (s *stubDeliveryRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubDeliveryRepository) FindDueForReminder(ctx context.Context, from, until time.Time) ([]*delivery.Delivery, error) {
	return nil, nil
}

func (s *stubDeliveryRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

func (f *serverFixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestServer_Jobs(t *testing.T) {
	t.Run("lists registered jobs", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.scheduler.Register("noop", "* * * * *",
			func(ctx context.Context) error { return nil }))

		rec := f.do(http.MethodGet, "/api/v1/jobs")
		require.Equal(t, http.StatusOK, rec.Code)

		var status jobs.SchedulerStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, 1, status.TotalJobs)
		assert.Contains(t, status.Jobs, "noop")
	})

	t.Run("single job status and unknown name", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.scheduler.Register("noop", "* * * * *",
			func(ctx context.Context) error { return nil }))

		rec := f.do(http.MethodGet, "/api/v1/jobs/noop")
		require.Equal(t, http.StatusOK, rec.Code)

		var status jobs.JobStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "noop", status.Name)
		assert.Equal(t, "* * * * *", status.Schedule)

		rec = f.do(http.MethodGet, "/api/v1/jobs/missing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("manual run reports the duration", func(t *testing.T) {
		f := newServerFixture(t)
		ran := 0
		require.NoError(t, f.scheduler.Register("noop", "* * * * *",
			func(ctx context.Context) error { ran++; return nil }))

		rec := f.do(http.MethodPost, "/api/v1/jobs/noop/run")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, ran)

		var response httpin.RunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "noop", response.Job)
		assert.Equal(t, "completed", response.Status)
	})

	t.Run("manual run of an unknown job is 404", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/jobs/missing/run")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("manual run failure is 500 with the job error", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.scheduler.Register("failing", "* * * * *",
			func(ctx context.Context) error { return errors.New("store unavailable") }))

		rec := f.do(http.MethodPost, "/api/v1/jobs/failing/run")
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body httpin.Error
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Message, "store unavailable")
	})

	t.Run("manual run of a busy job is 409", func(t *testing.T) {
		f := newServerFixture(t)
		entered := make(chan struct{})
		release := make(chan struct{})
		require.NoError(t, f.scheduler.Register("slow", "* * * * *",
			func(ctx context.Context) error {
				close(entered)
				<-release
				return nil
			}))

		go f.do(http.MethodPost, "/api/v1/jobs/slow/run")
		<-entered
		defer close(release)

		rec := f.do(http.MethodPost, "/api/v1/jobs/slow/run")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("start and stop", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(http.MethodPost, "/api/v1/jobs/start")
		require.Equal(t, http.StatusOK, rec.Code)
		var status jobs.SchedulerStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.True(t, status.IsRunning)

		rec = f.do(http.MethodPost, "/api/v1/jobs/stop")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.False(t, status.IsRunning)
	})
}

func TestServer_Status(t *testing.T) {
	t.Run("health before any check ran is 404", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodGet, "/api/v1/status/health")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("health returns the current snapshot", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.health.Append(context.Background(), monitoring.HealthSnapshot{
			Timestamp: time.Now().UTC(),
			Status:    monitoring.StatusHealthy,
			Checks:    map[string]monitoring.CheckResult{monitoring.CheckDisk: {Healthy: true}},
		}))

		rec := f.do(http.MethodGet, "/api/v1/status/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot monitoring.HealthSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.Equal(t, monitoring.StatusHealthy, snapshot.Status)
	})

	t.Run("performance returns latest and summary", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.metrics.Append(context.Background(), monitoring.MetricsSnapshot{
			Timestamp: time.Now().UTC(),
			System:    monitoring.SystemMetrics{MemoryMB: 128},
		}))

		rec := f.do(http.MethodGet, "/api/v1/status/performance")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Latest  *monitoring.MetricsSnapshot `json:"latest"`
			Summary monitoring.RollingSummary   `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Latest)
		assert.Equal(t, float64(128), body.Latest.System.MemoryMB)
		assert.Equal(t, 1, body.Summary.TotalSamples)
	})

	t.Run("notifications summarizes the pending queue", func(t *testing.T) {
		f := newServerFixture(t)
		now := time.Now().UTC()
		first, err := notification.New(notification.TypeOverdueDelivery, notification.PriorityHigh,
			"Overdue delivery", "Delivery for order ORD-1 is 25 hours overdue", nil, now)
		require.NoError(t, err)
		second, err := notification.New(notification.TypeDeliveryReminder, notification.PriorityMedium,
			"Delivery arriving soon", "Delivery for order ORD-2 arrives soon", nil, now)
		require.NoError(t, err)
		require.NoError(t, f.queue.Append(context.Background(), first, second))

		rec := f.do(http.MethodGet, "/api/v1/status/notifications")
		require.Equal(t, http.StatusOK, rec.Code)

		var status httpin.NotificationsStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, 2, status.Pending)
		assert.Equal(t, 1, status.ByType[notification.TypeOverdueDelivery])
		assert.Equal(t, 1, status.ByPriority[notification.PriorityMedium])
	})

	t.Run("dashboard aggregates all sections", func(t *testing.T) {
		f := newServerFixture(t)
		require.NoError(t, f.scheduler.StartAll())
		f.deliveries.counts = map[delivery.Status]int64{
			delivery.InTransit: 4,
			delivery.Delivered: 11,
		}

		rec := f.do(http.MethodGet, "/api/v1/status/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)

		var dashboard struct {
			Scheduler     jobs.SchedulerStatus       `json:"scheduler"`
			Deliveries    map[string]int64           `json:"deliveriesByStatus"`
			Health        *monitoring.HealthSnapshot `json:"health"`
			Notifications httpin.NotificationsStatus `json:"notifications"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
		assert.True(t, dashboard.Scheduler.IsRunning)
		assert.Equal(t, int64(4), dashboard.Deliveries[delivery.InTransit.String()])
		assert.Equal(t, int64(11), dashboard.Deliveries[delivery.Delivered.String()])
		assert.Nil(t, dashboard.Health)
		assert.Equal(t, 0, dashboard.Notifications.Pending)
	})
}
