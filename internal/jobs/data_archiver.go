package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dispatch/internal/core/ports"

	"github.com/WatchBeam/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Retention windows for the cleanup job.
const (
	deliveryRetention     = 90 * 24 * time.Hour
	notificationRetention = 7 * 24 * time.Hour
	tempFileRetention     = 30 * 24 * time.Hour
	accountStaleAfter     = 6 * 30 * 24 * time.Hour
)

// highArchiveVolume is the per-run archive count past which the report
// recommends a higher archive frequency.
const highArchiveVolume = 100

// ArchiverResult is the structured outcome of one cleanup run. Partial
// failures in any sub-step land in Errors; the run itself still succeeds.
type ArchiverResult struct {
	ArchivedDeliveries   int      `json:"archivedDeliveries"`
	CleanedNotifications int      `json:"cleanedNotifications"`
	DeletedOldLogs       int      `json:"deletedOldLogs"`
	OptimizedIndexes     int      `json:"optimizedIndexes"`
	FlaggedAccounts      int      `json:"flaggedAccounts"`
	Errors               []string `json:"errors,omitempty"`
}

// archivedDelivery is the denormalized snapshot stored in an archive file.
type archivedDelivery struct {
	ID                  string    `json:"id"`
	OrderID             string    `json:"orderId"`
	Status              string    `json:"status"`
	EstimatedDeliveryAt time.Time `json:"estimatedDeliveryAt"`
	Notes               []string  `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type deliveryArchive struct {
	ArchivedAt time.Time          `json:"archivedAt"`
	Count      int                `json:"count"`
	Deliveries []archivedDelivery `json:"deliveries"`
}

type cleanupReport struct {
	GeneratedAt     time.Time      `json:"generatedAt"`
	Results         ArchiverResult `json:"results"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

// DataArchiver moves aged terminal deliveries into immutable archive files,
// prunes stale notifications and temp files, flags dormant accounts for
// manual review, and writes a cleanup report per run.
type DataArchiver struct {
	deliveries ports.DeliveryRepository
	users      ports.UserRepository
	queue      ports.NotificationStore
	store      ports.StoreStatsProvider
	archives   ports.ArchiveWriter
	dataDir    string
	clk        clock.Clock
	logger     *slog.Logger
}

// NewDataArchiver creates the archival/cleanup job. dataDir is the directory
// scanned for prunable temp and log files.
func NewDataArchiver(
	deliveries ports.DeliveryRepository,
	users ports.UserRepository,
	queue ports.NotificationStore,
	store ports.StoreStatsProvider,
	archives ports.ArchiveWriter,
	dataDir string,
	clk clock.Clock,
	logger *slog.Logger,
) *DataArchiver {
	return &DataArchiver{
		deliveries: deliveries,
		users:      users,
		queue:      queue,
		store:      store,
		archives:   archives,
		dataDir:    dataDir,
		clk:        clk,
		logger:     logger.With("component", "data_archiver"),
	}
}

func (j *DataArchiver) runJob(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one cleanup pass. Every sub-step runs even when an earlier one
// failed; failures accumulate into the result instead of aborting the run.
func (j *DataArchiver) Run(ctx context.Context) (*ArchiverResult, error) {
	now := j.clk.Now()
	result := &ArchiverResult{}
	var errs *multierror.Error

	archived, err := j.archiveDeliveries(ctx, now)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("archive deliveries: %w", err))
	}
	result.ArchivedDeliveries = archived

	cleaned, err := j.queue.PruneOlderThan(ctx, now.Add(-notificationRetention))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("prune notifications: %w", err))
	}
	result.CleanedNotifications = cleaned

	deleted, err := j.pruneTempFiles(now)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("prune temp files: %w", err))
	}
	result.DeletedOldLogs = deleted

	optimized, err := j.store.Optimize(ctx)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("optimize store: %w", err))
	}
	result.OptimizedIndexes = optimized

	flagged, err := j.flagInactiveAccounts(ctx, now)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("flag inactive accounts: %w", err))
	}
	result.FlaggedAccounts = flagged

	for _, e := range errs.WrappedErrors() {
		result.Errors = append(result.Errors, e.Error())
	}

	report := cleanupReport{
		GeneratedAt:     now,
		Results:         *result,
		Recommendations: recommendationsFor(result),
	}
	if _, err := j.archives.Write(ctx, "cleanup-report", now, report); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("write cleanup report: %v", err))
	}

	j.logger.InfoContext(ctx, "Cleanup completed",
		"archived", result.ArchivedDeliveries,
		"cleanedNotifications", result.CleanedNotifications,
		"deletedOldLogs", result.DeletedOldLogs,
		"flaggedAccounts", result.FlaggedAccounts,
		"errors", len(result.Errors))
	return result, nil
}

// archiveDeliveries writes the archive file first and deletes the selected
// records only after the write succeeded, strictly by identifier. Records
// that became eligible between selection and deletion wait for the next run.
func (j *DataArchiver) archiveDeliveries(ctx context.Context, now time.Time) (int, error) {
	candidates, err := j.deliveries.FindArchivable(ctx, now.Add(-deliveryRetention))
	if err != nil {
		return 0, fmt.Errorf("select archivable deliveries: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	archive := deliveryArchive{
		ArchivedAt: now,
		Count:      len(candidates),
		Deliveries: make([]archivedDelivery, 0, len(candidates)),
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, d := range candidates {
		archive.Deliveries = append(archive.Deliveries, archivedDelivery{
			ID:                  d.ID().String(),
			OrderID:             d.OrderID(),
			Status:              d.Status().String(),
			EstimatedDeliveryAt: d.EstimatedDeliveryAt(),
			Notes:               d.Notes(),
			CreatedAt:           d.CreatedAt(),
			UpdatedAt:           d.UpdatedAt(),
		})
		ids = append(ids, d.ID())
	}

	path, err := j.archives.Write(ctx, "archive-deliveries", now, archive)
	if err != nil {
		return 0, fmt.Errorf("write delivery archive: %w", err)
	}

	deletedCount, err := j.deliveries.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete archived deliveries: %w", err)
	}

	j.logger.InfoContext(ctx, "Deliveries archived",
		"count", deletedCount, "archive", filepath.Base(path))
	return int(deletedCount), nil
}

// pruneTempFiles removes temp- and log-prefixed files in the data directory
// older than the retention window. Subdirectories are left alone.
func (j *DataArchiver) pruneTempFiles(now time.Time) (int, error) {
	entries, err := os.ReadDir(j.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-tempFileRetention)
	deleted := 0
	var errs *multierror.Error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "tmp") && !strings.HasPrefix(name, "log") {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			errs = multierror.Append(errs, infoErr)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if rmErr := os.Remove(filepath.Join(j.dataDir, name)); rmErr != nil {
			errs = multierror.Append(errs, rmErr)
			continue
		}
		deleted++
	}
	return deleted, errs.ErrorOrNil()
}

// flagInactiveAccounts logs dormant non-admin accounts for manual review.
// Accounts are never deleted automatically.
func (j *DataArchiver) flagInactiveAccounts(ctx context.Context, now time.Time) (int, error) {
	accounts, err := j.users.FindInactive(ctx, now.Add(-accountStaleAfter))
	if err != nil {
		return 0, err
	}
	for _, account := range accounts {
		j.logger.WarnContext(ctx, "Inactive account flagged for review",
			"user", account.ID, "email", account.Email, "lastUpdated", account.LastUpdated)
	}
	return len(accounts), nil
}

func recommendationsFor(result *ArchiverResult) []string {
	var recs []string
	if result.ArchivedDeliveries > highArchiveVolume {
		recs = append(recs, "High archive volume: consider increasing the archive frequency")
	}
	if result.CleanedNotifications > highArchiveVolume {
		recs = append(recs, "Large notification backlog pruned: review notification processing throughput")
	}
	if len(result.Errors) > 0 {
		recs = append(recs, "Cleanup completed with errors: inspect the error list before the next run")
	}
	return recs
}
