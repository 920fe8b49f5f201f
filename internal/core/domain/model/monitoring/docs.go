// Package monitoring provides the value objects shared by the performance
// collector and health checker jobs: metrics snapshots, health snapshots with
// status aggregation rules, and the streaming RollingSummary.
package monitoring
