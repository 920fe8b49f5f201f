package ports

import (
	"context"
	"time"
)

// ArchiveWriter persists immutable, timestamped artifacts: delivery archives
// written before destructive deletion, and cleanup reports. Artifacts are
// write-once; writing over an existing artifact is an error.
type ArchiveWriter interface {
	// Write stores the value as <prefix>-<stamp>.json and returns the
	// full path of the written artifact.
	Write(ctx context.Context, prefix string, stamp time.Time, value any) (string, error)
}
