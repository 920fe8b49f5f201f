package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stampFormat = "20060102-150405"

// ArchiveWriter writes immutable, timestamped JSON artifacts (delivery
// archives, cleanup reports). It implements ports.ArchiveWriter.
type ArchiveWriter struct {
	dir string
	mu  sync.Mutex
}

// NewArchiveWriter creates a writer rooted at dir.
func NewArchiveWriter(dir string) *ArchiveWriter {
	return &ArchiveWriter{dir: dir}
}

// Write stores the value as <prefix>-<stamp>.json. Artifacts are write-once:
// an existing file with the same name is never overwritten.
func (w *ArchiveWriter) Write(ctx context.Context, prefix string, stamp time.Time, value any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	name := fmt.Sprintf("%s-%s.json", prefix, stamp.UTC().Format(stampFormat))
	path := filepath.Join(w.dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("archive artifact %s already exists", name)
	}

	if err := writeJSONFileAtomic(path, value); err != nil {
		return "", err
	}
	return path, nil
}
