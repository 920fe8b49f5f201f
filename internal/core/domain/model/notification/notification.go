package notification

import (
	"time"

	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

// MaxRetries is the retry budget for a single notification. A record whose
// RetryCount reaches this value is archived regardless of outcome.
const MaxRetries = 3

// Type identifies the delivery channel selection for a notification.
// Unrecognized types are dispatched through a generic fallback channel.
type Type string

const (
	TypeOverdueDelivery  Type = "overdue_delivery"
	TypeDeliveryReminder Type = "delivery_reminder"
	TypeCourierAlert     Type = "courier_alert"
	TypeSystemAlert      Type = "system_alert"
)

// Priority orders notifications by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Record is one queued unit of outbound notification work together with its
// retry bookkeeping. Records are created by producer jobs, carried in the
// pending queue, and moved to a dated processed archive once dispatched or
// once the retry budget is exhausted.
//
// Fields are exported because records cross the filestore boundary as JSON;
// mutation still goes through the methods below so the retry invariant
// (RetryCount grows by exactly one per failed attempt) holds.
type Record struct {
	ID          uuid.UUID      `json:"id"`
	Type        Type           `json:"type"`
	Priority    Priority       `json:"priority"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	RetryCount  int            `json:"retryCount"`
	Processed   bool           `json:"processed,omitempty"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
	Failed      bool           `json:"failed,omitempty"`
	FailedAt    *time.Time     `json:"failedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// New creates a pending notification record.
func New(t Type, priority Priority, title, message string, data map[string]any, now time.Time) (Record, error) {
	if title == "" {
		return Record{}, errs.NewValueIsRequiredError("title")
	}
	if message == "" {
		return Record{}, errs.NewValueIsRequiredError("message")
	}

	return Record{
		ID:        uuid.New(),
		Type:      t,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: now,
	}, nil
}

// MarkProcessed records a successful dispatch.
func (r *Record) MarkProcessed(now time.Time) {
	r.Processed = true
	r.ProcessedAt = &now
	r.Error = ""
}

// RecordFailure notes one failed dispatch attempt. The retry count grows by
// exactly one per call; callers must invoke it once per attempt.
func (r *Record) RecordFailure(cause error, now time.Time) {
	r.RetryCount++
	if cause != nil {
		r.Error = cause.Error()
	}
	if r.Exhausted() {
		r.Failed = true
		r.FailedAt = &now
	}
}

// Exhausted reports whether the record has used up its retry budget.
func (r *Record) Exhausted() bool {
	return r.RetryCount >= MaxRetries
}

// OlderThan reports whether the record was created before the cutoff.
// Used by the archiver to prune stale pending notifications.
func (r *Record) OlderThan(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}
