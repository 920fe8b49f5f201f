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
	healthFilePattern = "health-%s.json"
	healthCurrentFile = "health-current.json"

	// HealthDailyCap bounds the dated health log: one check per minute is
	// 1,440 samples per day.
	HealthDailyCap = 1440
)

// HealthStore is the file-backed health check log plus the single current
// status record. It implements ports.HealthStore.
type HealthStore struct {
	dir string
	mu  sync.Mutex
}

// NewHealthStore creates a store rooted at dir.
func NewHealthStore(dir string) *HealthStore {
	return &HealthStore{dir: dir}
}

func (s *HealthStore) dayPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf(healthFilePattern, day.UTC().Format(dayFormat)))
}

func (s *HealthStore) currentPath() string {
	return filepath.Join(s.dir, healthCurrentFile)
}

// Append adds the snapshot to its day's log, trimming the oldest entries
// beyond the daily cap, and overwrites the current status record.
func (s *HealthStore) Append(ctx context.Context, snapshot monitoring.HealthSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.dayPath(snapshot.Timestamp)
	var day []monitoring.HealthSnapshot
	if err := readJSONFile(path, &day); err != nil {
		return err
	}
	day = append(day, snapshot)
	if len(day) > HealthDailyCap {
		day = day[len(day)-HealthDailyCap:]
	}
	if err := writeJSONFileAtomic(path, day); err != nil {
		return err
	}

	return writeJSONFileAtomic(s.currentPath(), snapshot)
}

// Current returns the last written snapshot, or nil when none exists.
func (s *HealthStore) Current(ctx context.Context) (*monitoring.HealthSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot monitoring.HealthSnapshot
	if err := readJSONFile(s.currentPath(), &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Timestamp.IsZero() {
		return nil, nil
	}
	return &snapshot, nil
}
