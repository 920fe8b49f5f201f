package filestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/monitoring"
)

const (
	metricsFilePattern = "metrics-%s.json"
	metricsSummaryFile = "metrics-summary.json"

	// MetricsDailyCap bounds the dated metrics log: at a 15-minute
	// collection interval that is 96 samples per day.
	MetricsDailyCap = 96
)

// MetricsStore is the file-backed performance metrics log plus the rolling
// summary. It implements ports.MetricsStore.
type MetricsStore struct {
	dir string
	mu  sync.Mutex
}

// NewMetricsStore creates a store rooted at dir.
func NewMetricsStore(dir string) *MetricsStore {
	return &MetricsStore{dir: dir}
}

func (s *MetricsStore) dayPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf(metricsFilePattern, day.UTC().Format(dayFormat)))
}

func (s *MetricsStore) summaryPath() string {
	return filepath.Join(s.dir, metricsSummaryFile)
}

// Append adds the snapshot to its day's log, trimming the oldest entries
// beyond the daily cap, and folds it into the rolling summary. The summary
// sees every snapshot exactly once, including ones the cap later trims.
func (s *MetricsStore) Append(ctx context.Context, snapshot monitoring.MetricsSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.dayPath(snapshot.Timestamp)
	var day []monitoring.MetricsSnapshot
	if err := readJSONFile(path, &day); err != nil {
		return err
	}
	day = append(day, snapshot)
	if len(day) > MetricsDailyCap {
		day = day[len(day)-MetricsDailyCap:]
	}
	if err := writeJSONFileAtomic(path, day); err != nil {
		return err
	}

	var summary monitoring.RollingSummary
	if err := readJSONFile(s.summaryPath(), &summary); err != nil {
		return err
	}
	summary.Observe(snapshot)
	return writeJSONFileAtomic(s.summaryPath(), summary)
}

// Latest returns the most recent snapshot of the given day's log, falling
// back to the previous day around midnight. Nil when nothing was recorded.
func (s *MetricsStore) Latest(ctx context.Context) (*monitoring.MetricsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		var entries []monitoring.MetricsSnapshot
		if err := readJSONFile(s.dayPath(day), &entries); err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			last := entries[len(entries)-1]
			return &last, nil
		}
	}
	return nil, nil
}

// Summary returns the rolling aggregate over all observed snapshots.
func (s *MetricsStore) Summary(ctx context.Context) (monitoring.RollingSummary, error) {
	if err := ctx.Err(); err != nil {
		return monitoring.RollingSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var summary monitoring.RollingSummary
	if err := readJSONFile(s.summaryPath(), &summary); err != nil {
		return monitoring.RollingSummary{}, err
	}
	return summary, nil
}
