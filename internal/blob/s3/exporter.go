package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

const jsonlContentType = "application/x-ndjson"

// JournalSource is the narrow read the exporter needs: the joined journal
// of one environment under a filter.
type JournalSource interface {
	List(ctx context.Context, env domain.Environment, filter domain.JournalFilter) ([]domain.JournalEntry, error)
}

// ExportResult describes one export run.
type ExportResult struct {
	Path    string
	Count   int
	Bytes   int
	Skipped bool
}

// JournalExporter writes monthly journal snapshots to object storage as
// JSONL, one joined entry per line.
type JournalExporter struct {
	source   JournalSource
	writer   domain.BlobWriter
	reader   domain.BlobReader
	prefix   string
	partSize int64
	logger   *slog.Logger
}

// NewJournalExporter creates a JournalExporter. Payloads larger than
// partSize are uploaded with multipart.
func NewJournalExporter(
	source JournalSource,
	writer domain.BlobWriter,
	reader domain.BlobReader,
	prefix string,
	partSize int64,
	logger *slog.Logger,
) *JournalExporter {
	return &JournalExporter{
		source:   source,
		writer:   writer,
		reader:   reader,
		prefix:   prefix,
		partSize: partSize,
		logger:   logger.With(slog.String("component", "journal_exporter")),
	}
}

// ExportMonth exports every journal entry of env whose entry timestamp falls
// in the calendar month (UTC) containing month. An existing object is left
// alone unless force is set.
func (e *JournalExporter) ExportMonth(ctx context.Context, env domain.Environment, month time.Time, force bool) (ExportResult, error) {
	r := MonthRange(month)
	path := exportPath(e.prefix, env, r.From)
	res := ExportResult{Path: path}

	if !force {
		exists, err := e.reader.Exists(ctx, path)
		if err != nil {
			return res, fmt.Errorf("s3blob: export journal check: %w", err)
		}
		if exists {
			res.Skipped = true
			e.logger.InfoContext(ctx, "export exists, skipping", slog.String("path", path))
			return res, nil
		}
	}

	// To is inclusive in the journal filter; stop one tick before the next
	// month starts.
	to := r.To.Add(-time.Nanosecond)
	entries, err := e.source.List(ctx, env, domain.JournalFilter{From: &r.From, To: &to})
	if err != nil {
		return res, fmt.Errorf("s3blob: export journal query: %w", err)
	}
	res.Count = len(entries)

	buf, err := marshalJSONL(entries)
	if err != nil {
		return res, fmt.Errorf("s3blob: export journal marshal: %w", err)
	}
	res.Bytes = len(buf)

	if int64(len(buf)) > e.partSize {
		err = e.writer.PutMultipart(ctx, path, bytes.NewReader(buf), e.partSize)
	} else {
		err = e.writer.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
	}
	if err != nil {
		return res, fmt.Errorf("s3blob: export journal upload: %w", err)
	}

	e.logger.InfoContext(ctx, "journal exported",
		slog.String("environment", string(env)),
		slog.String("path", path),
		slog.Int("entries", res.Count),
		slog.Int("bytes", res.Bytes),
	)
	return res, nil
}

// ListExports returns the journal exports stored for env.
func (e *JournalExporter) ListExports(ctx context.Context, env domain.Environment) ([]domain.BlobInfo, error) {
	infos, err := e.reader.List(ctx, fmt.Sprintf("%s/%s/journal/", e.prefix, env))
	if err != nil {
		return nil, fmt.Errorf("s3blob: list exports: %w", err)
	}
	return infos, nil
}

// MonthRange returns the UTC calendar month containing t.
func MonthRange(t time.Time) domain.DateRange {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return domain.DateRange{From: from, To: from.AddDate(0, 1, 0)}
}

// exportPath builds the object key for a monthly export.
//
//	exports/production/journal/2026-01.jsonl
func exportPath(prefix string, env domain.Environment, month time.Time) string {
	return fmt.Sprintf("%s/%s/journal/%s.jsonl", prefix, env, month.Format("2006-01"))
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
