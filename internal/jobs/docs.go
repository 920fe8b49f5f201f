// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic maintenance and monitoring work of the service.
//
// # Available Jobs
//
// 1. OverdueDetector - Runs every 30 minutes to flag deliveries past their estimate and queue alerts
// 2. DataArchiver - Runs daily at 02:00 to archive terminal deliveries and clean up old data
// 3. PerformanceCollector - Runs every 15 minutes to sample system, store, and application metrics
// 4. NotificationProcessor - Runs every 5 minutes to dispatch queued notifications and generate reminders
// 5. HealthChecker - Runs every minute to probe the store, memory, disk, and scheduler state
//
// # Usage
//
// Jobs are managed through Scheduler which provides a unified interface:
//
//	// Create the scheduler over the job set
//	scheduler := jobs.NewScheduler(jobs.JobSet{
//		OverdueDetector:       overdueDetector,
//		DataArchiver:          dataArchiver,
//		PerformanceCollector:  performanceCollector,
//		NotificationProcessor: notificationProcessor,
//		HealthChecker:         healthChecker,
//	}, logger)
//
//	// Start all jobs
//	if err := scheduler.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer scheduler.StopAll()
//
// Individual jobs can also be triggered on demand with RunOnce, which runs
// the job synchronously and reports its error, unlike scheduled runs where
// errors are only recorded in the job's status.
//
// # Error Handling
//
//   - A scheduled run that overlaps a still-running execution of the same job
//     is skipped and logged, never queued.
//   - Panics inside a job are recovered and recorded as job errors with the
//     captured stack trace.
//   - Each run is bounded by a timeout; jobs receive it via their context.
//   - Per-job success and error counters and the last error are available
//     through Status.
package jobs
