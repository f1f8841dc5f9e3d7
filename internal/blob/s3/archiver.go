package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
)

// ScanArchiveStore provides read access to scan history for archival. The
// Postgres ScanStore satisfies it implicitly.
type ScanArchiveStore interface {
	ListScansBefore(ctx context.Context, before time.Time) ([]domain.ScanRecord, error)
}

// ArchiveImpl implements domain.Archiver by querying the scan store for old
// records, serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here -- that is a separate, explicit step to be executed
// after the archive has been verified.
type ArchiveImpl struct {
	writer domain.BlobWriter
	scans  ScanArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, scans ScanArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, scans: scans}
}

// ArchiveScans queries all scans finished before the cutoff, serializes them
// to JSONL, and uploads the file to S3 at archive/scans/YYYY-MM.jsonl. It
// returns the object path and the count of archived records; a cutoff with
// nothing behind it uploads nothing.
func (a *ArchiveImpl) ArchiveScans(ctx context.Context, before time.Time) (string, int, error) {
	scans, err := a.scans.ListScansBefore(ctx, before)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive scans query: %w", err)
	}
	if len(scans) == 0 {
		return "", 0, nil
	}

	buf, err := marshalJSONL(scans)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive scans marshal: %w", err)
	}

	path := archivePath("scans", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", 0, fmt.Errorf("s3blob: archive scans upload: %w", err)
	}

	return path, len(scans), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/scans/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
