package history

import (
	"context"
	"time"
)

// Recorder is the audit trail of limiter changes.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	Last(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// Repository stores entries.
type Repository interface {
	Insert(entry *Entry) error
	Last(n int) ([]Entry, error)
	Close() error
}

// Entry is one applied limiter change.
type Entry struct {
	Timestamp  time.Time
	Operation  string
	SavePolicy string
	Previous   uint32
	Applied    uint32
}
