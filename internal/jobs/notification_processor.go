package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/notification"
	"dispatch/internal/core/ports"

	"github.com/WatchBeam/clock"
)

// reminderWindow is how far ahead of the estimate a delivery reminder is
// generated.
const reminderWindow = 2 * time.Hour

// ProcessorResult is the structured outcome of one notification processing run.
type ProcessorResult struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Reminders int      `json:"reminders"`
	Errors    []string `json:"errors,omitempty"`
}

// NotificationProcessor drains the pending queue, dispatches each record by
// type, and partitions the outcomes: dispatched records and records whose
// retry budget is exhausted move to the dated processed archive, everything
// else goes back to pending for the next run. It also generates reminder
// notifications for deliveries coming due.
type NotificationProcessor struct {
	queue      ports.NotificationStore
	deliveries ports.DeliveryRepository
	dispatcher Dispatcher
	clk        clock.Clock
	logger     *slog.Logger
}

// NewNotificationProcessor creates the notification processing job.
func NewNotificationProcessor(
	queue ports.NotificationStore,
	deliveries ports.DeliveryRepository,
	dispatcher Dispatcher,
	clk clock.Clock,
	logger *slog.Logger,
) *NotificationProcessor {
	return &NotificationProcessor{
		queue:      queue,
		deliveries: deliveries,
		dispatcher: dispatcher,
		clk:        clk,
		logger:     logger.With("component", "notification_processor"),
	}
}

func (j *NotificationProcessor) runJob(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one processing pass. A failed dispatch increments the record's
// retry count exactly once; the record stays pending until its budget of
// notification.MaxRetries attempts is spent, then it is archived as failed.
func (j *NotificationProcessor) Run(ctx context.Context) (*ProcessorResult, error) {
	now := j.clk.Now()
	result := &ProcessorResult{}

	drained, err := j.queue.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("drain pending notifications: %w", err)
	}

	var finished []notification.Record
	var retained []notification.Record

	for i := range drained {
		rec := drained[i]
		result.Processed++

		_, dispatchErr := j.dispatcher.Dispatch(ctx, rec)
		if dispatchErr == nil {
			rec.MarkProcessed(j.clk.Now())
			finished = append(finished, rec)
			result.Sent++
			continue
		}

		rec.RecordFailure(dispatchErr, j.clk.Now())
		if rec.Exhausted() {
			finished = append(finished, rec)
			result.Failed++
			j.logger.WarnContext(ctx, "Notification retry budget exhausted",
				"notification", rec.ID, "type", rec.Type, "error", dispatchErr)
		} else {
			retained = append(retained, rec)
			j.logger.InfoContext(ctx, "Notification dispatch failed, will retry",
				"notification", rec.ID, "retryCount", rec.RetryCount, "error", dispatchErr)
		}
	}

	if len(finished) > 0 {
		if archiveErr := j.queue.Archive(ctx, now, finished...); archiveErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("archive processed notifications: %v", archiveErr))
		}
	}
	if len(retained) > 0 {
		if appendErr := j.queue.Append(ctx, retained...); appendErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("requeue retried notifications: %v", appendErr))
		}
	}

	reminders, reminderErrs := j.generateReminders(ctx, now)
	result.Reminders = reminders
	result.Errors = append(result.Errors, reminderErrs...)

	j.logger.InfoContext(ctx, "Notification processing completed",
		"processed", result.Processed, "sent", result.Sent,
		"failed", result.Failed, "reminders", result.Reminders)
	return result, nil
}

// generateReminders enqueues a delivery reminder for every in-transit
// delivery coming due within the reminder window. The conditional flag flip
// in the repository is the idempotency guard: a delivery whose flag was
// already set produces no second reminder.
func (j *NotificationProcessor) generateReminders(ctx context.Context, now time.Time) (int, []string) {
	due, err := j.deliveries.FindDueForReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, []string{fmt.Sprintf("find deliveries due for reminder: %v", err)}
	}

	var errors []string
	var reminders []notification.Record
	for _, d := range due {
		flipped, markErr := j.deliveries.MarkReminderSent(ctx, d.ID(), now)
		if markErr != nil {
			errors = append(errors, fmt.Sprintf("mark reminder sent for %s: %v", d.ID(), markErr))
			continue
		}
		if !flipped {
			continue
		}

		rec, recErr := notification.New(
			notification.TypeDeliveryReminder,
			notification.PriorityMedium,
			"Delivery arriving soon",
			fmt.Sprintf("Delivery for order %s is expected by %s",
				d.OrderID(), d.EstimatedDeliveryAt().UTC().Format(time.RFC3339)),
			map[string]any{
				"deliveryId": d.ID().String(),
				"orderId":    d.OrderID(),
			},
			now,
		)
		if recErr != nil {
			errors = append(errors, fmt.Sprintf("build reminder for %s: %v", d.ID(), recErr))
			continue
		}
		reminders = append(reminders, rec)
	}

	if len(reminders) > 0 {
		if appendErr := j.queue.Append(ctx, reminders...); appendErr != nil {
			errors = append(errors, fmt.Sprintf("enqueue reminders: %v", appendErr))
			return 0, errors
		}
	}
	return len(reminders), errors
}
