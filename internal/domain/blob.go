package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports old scan history from the primary store to blob storage.
type Archiver interface {
	// ArchiveScans uploads all scans finished before the cutoff as JSONL and
	// returns the object path and the number of records archived.
	ArchiveScans(ctx context.Context, before time.Time) (string, int, error)
}
