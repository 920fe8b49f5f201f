package filestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/notification"
)

const (
	pendingNotificationsFile = "pending-notifications.json"
	processedFilePattern     = "processed-notifications-%s.json"
	dayFormat                = "2006-01-02"
)

// NotificationStore is the file-backed pending notification queue.
// It implements ports.NotificationStore.
type NotificationStore struct {
	dir string
	mu  sync.Mutex
}

// NewNotificationStore creates a store rooted at dir. The directory is
// created lazily on first write; a store over a directory that was never
// written reads as empty.
func NewNotificationStore(dir string) *NotificationStore {
	return &NotificationStore{dir: dir}
}

func (s *NotificationStore) pendingPath() string {
	return filepath.Join(s.dir, pendingNotificationsFile)
}

func (s *NotificationStore) processedPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf(processedFilePattern, day.UTC().Format(dayFormat)))
}

// Append adds records to the end of the pending queue. The whole
// read-append-rewrite cycle runs under the store mutex so a concurrent Drain
// cannot lose the new records.
func (s *NotificationStore) Append(ctx context.Context, records ...notification.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []notification.Record
	if err := readJSONFile(s.pendingPath(), &pending); err != nil {
		return err
	}
	pending = append(pending, records...)
	return writeJSONFileAtomic(s.pendingPath(), pending)
}

// Pending returns the queued records without removing them.
func (s *NotificationStore) Pending(ctx context.Context) ([]notification.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []notification.Record
	if err := readJSONFile(s.pendingPath(), &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Drain removes and returns the entire pending queue.
func (s *NotificationStore) Drain(ctx context.Context) ([]notification.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []notification.Record
	if err := readJSONFile(s.pendingPath(), &pending); err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	if err := writeJSONFileAtomic(s.pendingPath(), []notification.Record{}); err != nil {
		return nil, err
	}
	return pending, nil
}

// Archive appends finished records to the dated processed log for day.
func (s *NotificationStore) Archive(ctx context.Context, day time.Time, records ...notification.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.processedPath(day)
	var archived []notification.Record
	if err := readJSONFile(path, &archived); err != nil {
		return err
	}
	archived = append(archived, records...)
	return writeJSONFileAtomic(path, archived)
}

// PruneOlderThan drops pending records created before the cutoff.
func (s *NotificationStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []notification.Record
	if err := readJSONFile(s.pendingPath(), &pending); err != nil {
		return 0, err
	}

	kept := pending[:0]
	for _, rec := range pending {
		if !rec.OlderThan(cutoff) {
			kept = append(kept, rec)
		}
	}

	pruned := len(pending) - len(kept)
	if pruned == 0 {
		return 0, nil
	}
	if err := writeJSONFileAtomic(s.pendingPath(), kept); err != nil {
		return 0, err
	}
	return pruned, nil
}
