package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const documentColumns = "id, canonical_url, media_format, lang, title, processing_status, processing_error, processed_at, created_at, updated_at"

// CreateDocument inserts a new work item. Status defaults to pending when unset.
func (s *Store) CreateDocument(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	if doc.MediaFormat == "" {
		doc.MediaFormat = FormatVideo
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO documents (
            id, canonical_url, media_format, lang, title,
            processing_status, processing_error, processed_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		nullableString(doc.CanonicalURL),
		string(doc.MediaFormat),
		nullableString(doc.Language),
		nullableString(doc.Title),
		string(doc.Status),
		nullableString(doc.ProcessingError),
		nullableTime(doc.ProcessedAt),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument fetches a work item by identifier. Returns nil when absent.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ClaimDocument performs the atomic pending -> processing transition. A false
// return means the precondition failed: the document is missing, already
// claimed, or terminal. This is the idempotency guard against duplicate
// queue delivery.
func (s *Store) ClaimDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET processing_status = ?, updated_at = ?
         WHERE id = ? AND processing_status = ?`,
		string(StatusProcessing),
		timestamp(time.Now().UTC()),
		id,
		string(StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("claim document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkCompleted transitions a document to completed, stamping processed_at
// and clearing any recorded error.
func (s *Store) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET processing_status = ?, processed_at = ?, processing_error = NULL, updated_at = ?
         WHERE id = ?`,
		string(StatusCompleted),
		timestamp(now),
		timestamp(now),
		id,
	); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkRetry returns a document to pending with the retry detail recorded so a
// redelivered message can claim it again.
func (s *Store) MarkRetry(ctx context.Context, id, errorDetail string) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET processing_status = ?, processing_error = ?, updated_at = ?
         WHERE id = ?`,
		string(StatusPending),
		nullableString(errorDetail),
		timestamp(time.Now().UTC()),
		id,
	); err != nil {
		return fmt.Errorf("mark retry: %w", err)
	}
	return nil
}

// MarkError transitions a document to the terminal error state.
func (s *Store) MarkError(ctx context.Context, id, errorDetail string) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET processing_status = ?, processing_error = ?, updated_at = ?
         WHERE id = ?`,
		string(StatusError),
		nullableString(errorDetail),
		timestamp(time.Now().UTC()),
		id,
	); err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return nil
}

// ReclaimStale returns documents stuck in processing whose last update
// predates the cutoff back to pending. Covers crashes that left a claim
// behind; queue redelivery supplies the retry.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET processing_status = ?, processing_error = ?, updated_at = ?
         WHERE processing_status = ? AND updated_at < ?`,
		string(StatusPending),
		"reclaimed from stale processing",
		timestamp(time.Now().UTC()),
		string(StatusProcessing),
		timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale documents: %w", err)
	}
	return res.RowsAffected()
}

// DocumentStats returns a count of documents grouped by status.
func (s *Store) DocumentStats(ctx context.Context) (map[DocumentStatus]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT processing_status, COUNT(1) FROM documents GROUP BY processing_status`)
	if err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[DocumentStatus]int)
	for rows.Next() {
		var status DocumentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates document state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.DocumentStats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusCompleted:
			health.Completed += count
		case StatusError:
			health.Errored += count
		}
	}
	return health, nil
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		id           string
		canonicalURL sql.NullString
		mediaFormat  sql.NullString
		lang         sql.NullString
		title        sql.NullString
		statusStr    string
		procError    sql.NullString
		processedRaw sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&canonicalURL,
		&mediaFormat,
		&lang,
		&title,
		&statusStr,
		&procError,
		&processedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	doc := &Document{
		ID:              id,
		CanonicalURL:    canonicalURL.String,
		MediaFormat:     MediaFormat(mediaFormat.String),
		Language:        lang.String,
		Title:           title.String,
		Status:          DocumentStatus(statusStr),
		ProcessingError: procError.String,
	}
	if processedRaw.Valid {
		if processed, err := parseTimeString(processedRaw.String); err == nil {
			doc.ProcessedAt = &processed
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		doc.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		doc.UpdatedAt = updated
	}
	return doc, nil
}
