package jobs

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/notification"

	"github.com/WatchBeam/clock"
)

// DispatchResult describes a successful hand-off to a delivery channel.
type DispatchResult struct {
	Method    string    `json:"method"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher is the outbound delivery channel for notifications. The
// production implementation would talk to mail/SMS/push providers; this
// subsystem only requires the contract.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec notification.Record) (DispatchResult, error)
}

// ErrDispatchFailed is the simulated transport failure.
var ErrDispatchFailed = errors.New("notification dispatch failed")

// channelFor maps a notification type to its delivery method and recipient
// group. Unknown types fall back to a generic email channel.
func channelFor(t notification.Type) (method, recipient string) {
	switch t {
	case notification.TypeOverdueDelivery:
		return "email", "operations"
	case notification.TypeDeliveryReminder:
		return "sms", "customer"
	case notification.TypeCourierAlert:
		return "push", "courier"
	case notification.TypeSystemAlert:
		return "webhook", "oncall"
	default:
		return "email", "support"
	}
}

// SimulatedDispatcher stands in for an external delivery channel: it sleeps
// for a configured latency and fails independently at a small random rate.
type SimulatedDispatcher struct {
	latency     time.Duration
	failureRate float64
	clk         clock.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedDispatcher creates a dispatcher with the given artificial
// latency and failure probability in [0, 1].
func NewSimulatedDispatcher(clk clock.Clock, latency time.Duration, failureRate float64) *SimulatedDispatcher {
	return &SimulatedDispatcher{
		latency:     latency,
		failureRate: failureRate,
		clk:         clk,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Dispatch simulates sending one notification. It honors context
// cancellation while waiting out the simulated latency.
func (d *SimulatedDispatcher) Dispatch(ctx context.Context, rec notification.Record) (DispatchResult, error) {
	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return DispatchResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	d.mu.Lock()
	failed := d.rng.Float64() < d.failureRate
	d.mu.Unlock()
	if failed {
		return DispatchResult{}, ErrDispatchFailed
	}

	method, recipient := channelFor(rec.Type)
	return DispatchResult{
		Method:    method,
		Recipient: recipient,
		Timestamp: d.clk.Now(),
	}, nil
}
