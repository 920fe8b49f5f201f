package cmd

import (
	"log/slog"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/filestore"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/deliveryrepo"
	"dispatch/internal/adapters/out/postgres/userrepo"
	"dispatch/internal/jobs"

	"github.com/WatchBeam/clock"
	"gorm.io/gorm"
)

// Simulated dispatcher tuning for the demo transport.
const (
	dispatchLatency     = 100 * time.Millisecond
	dispatchFailureRate = 0.1
)

// CompositionRoot wires the repositories, file stores, jobs, scheduler, and
// HTTP server together.
type CompositionRoot struct {
	Scheduler *jobs.Scheduler
	Server    *httpin.Server
}

// NewCompositionRoot builds the full object graph over an open database
// handle. The health checker is attached to the scheduler after both exist.
func NewCompositionRoot(configs Config, gormDB *gorm.DB, logger *slog.Logger) CompositionRoot {
	clk := clock.C

	deliveryRepository := deliveryrepo.NewGormDeliveryRepository(gormDB)
	courierRepository := courierrepo.NewGormCourierRepository(gormDB)
	userRepository := userrepo.NewGormUserRepository(gormDB)
	storeStats := postgres.NewStoreStatsProvider(gormDB)

	notificationStore := filestore.NewNotificationStore(configs.DataDir)
	metricsStore := filestore.NewMetricsStore(configs.DataDir)
	healthStore := filestore.NewHealthStore(configs.DataDir)
	archiveWriter := filestore.NewArchiveWriter(configs.ArchiveDir)

	dispatcher := jobs.NewSimulatedDispatcher(clk, dispatchLatency, dispatchFailureRate)
	healthChecker := jobs.NewHealthChecker(
		storeStats, deliveryRepository, healthStore, configs.DataDir, clk, logger)

	scheduler := jobs.NewScheduler(jobs.JobSet{
		OverdueDetector: jobs.NewOverdueDetector(
			deliveryRepository, notificationStore, clk, logger),
		DataArchiver: jobs.NewDataArchiver(
			deliveryRepository, userRepository, notificationStore, storeStats,
			archiveWriter, configs.DataDir, clk, logger),
		PerformanceCollector: jobs.NewPerformanceCollector(
			deliveryRepository, courierRepository, userRepository,
			notificationStore, storeStats, metricsStore, clk, logger),
		NotificationProcessor: jobs.NewNotificationProcessor(
			notificationStore, deliveryRepository, dispatcher, clk, logger),
		HealthChecker: healthChecker,
	}, logger)
	healthChecker.SetStatusSource(scheduler)

	server := httpin.NewServer(
		scheduler, deliveryRepository, notificationStore, metricsStore, healthStore)

	return CompositionRoot{
		Scheduler: scheduler,
		Server:    server,
	}
}
