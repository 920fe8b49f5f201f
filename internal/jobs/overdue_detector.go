package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/notification"
	"dispatch/internal/core/ports"

	"github.com/WatchBeam/clock"
)

// OverdueDelivery is one flagged item in an OverdueResult.
type OverdueDelivery struct {
	ID           string `json:"id"`
	OrderID      string `json:"orderId"`
	HoursOverdue int    `json:"hoursOverdue"`
	Severity     string `json:"severity"`
}

// Severity labels for overdue deliveries.
const (
	SeverityFlagged  = "flagged"
	SeverityCritical = "critical"
)

// OverdueResult is the structured outcome of one overdue detection run.
type OverdueResult struct {
	OverdueCount  int               `json:"overdueCount"`
	Processed     []OverdueDelivery `json:"processed"`
	Notifications int               `json:"notifications"`
}

// OverdueDetector scans in-transit deliveries past their estimate, appends an
// audit note to each, and enqueues one notification per overdue item.
type OverdueDetector struct {
	deliveries ports.DeliveryRepository
	queue      ports.NotificationStore
	clk        clock.Clock
	logger     *slog.Logger
}

// NewOverdueDetector creates the overdue detection job.
func NewOverdueDetector(
	deliveries ports.DeliveryRepository,
	queue ports.NotificationStore,
	clk clock.Clock,
	logger *slog.Logger,
) *OverdueDetector {
	return &OverdueDetector{
		deliveries: deliveries,
		queue:      queue,
		clk:        clk,
		logger:     logger.With("component", "overdue_detector"),
	}
}

func (j *OverdueDetector) runJob(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one detection pass. A delivery more than 24 hours past its
// estimate is classified critical and produces a high-priority notification;
// anything else overdue is flagged at medium priority. Per-record update
// failures are logged and do not abort the pass.
func (j *OverdueDetector) Run(ctx context.Context) (*OverdueResult, error) {
	now := j.clk.Now()

	overdue, err := j.deliveries.FindOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find overdue deliveries: %w", err)
	}

	result := &OverdueResult{OverdueCount: len(overdue)}
	records := make([]notification.Record, 0, len(overdue))

	for _, d := range overdue {
		hours := d.HoursOverdue(now)
		severity := SeverityFlagged
		priority := notification.PriorityMedium
		note := fmt.Sprintf("OVERDUE: delivery is %d hours past its estimate", hours)
		if d.IsCriticallyOverdue(now) {
			severity = SeverityCritical
			priority = notification.PriorityHigh
			note = fmt.Sprintf("CRITICAL: delivery is %d hours past its estimate", hours)
		}

		if noteErr := d.AppendNote(note, now); noteErr != nil {
			j.logger.ErrorContext(ctx, "Failed to annotate overdue delivery",
				"delivery", d.ID(), "error", noteErr)
			continue
		}
		if updateErr := j.deliveries.Update(ctx, d); updateErr != nil {
			j.logger.ErrorContext(ctx, "Failed to persist overdue note",
				"delivery", d.ID(), "error", updateErr)
			continue
		}

		result.Processed = append(result.Processed, OverdueDelivery{
			ID:           d.ID().String(),
			OrderID:      d.OrderID(),
			HoursOverdue: hours,
			Severity:     severity,
		})

		rec, recErr := notification.New(
			notification.TypeOverdueDelivery,
			priority,
			"Overdue delivery",
			fmt.Sprintf("Delivery for order %s is %d hours overdue", d.OrderID(), hours),
			map[string]any{
				"deliveryId":   d.ID().String(),
				"orderId":      d.OrderID(),
				"hoursOverdue": hours,
				"severity":     severity,
			},
			now,
		)
		if recErr != nil {
			j.logger.ErrorContext(ctx, "Failed to build overdue notification",
				"delivery", d.ID(), "error", recErr)
			continue
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := j.queue.Append(ctx, records...); err != nil {
			return nil, fmt.Errorf("enqueue overdue notifications: %w", err)
		}
	}
	result.Notifications = len(records)

	j.logger.InfoContext(ctx, "Overdue detection completed",
		"overdue", result.OverdueCount, "notifications", result.Notifications)
	return result, nil
}
