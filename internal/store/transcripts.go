package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpsertTranscript inserts or replaces the transcript for a document. The
// unique constraint on document_id keeps records one-per-document; conflicts
// update in place so a re-run never produces duplicates.
func (s *Store) UpsertTranscript(ctx context.Context, t *Transcript) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if t.DocumentID == "" {
		return errors.New("transcript document id is required")
	}

	segmentsJSON, err := json.Marshal(t.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	var metadataJSON any
	if len(t.Metadata) > 0 {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	now := timestamp(time.Now().UTC())
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcripts (
            document_id, segments_json, language, source, confidence_score, metadata_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(document_id) DO UPDATE SET
            segments_json = excluded.segments_json,
            language = excluded.language,
            source = excluded.source,
            confidence_score = excluded.confidence_score,
            metadata_json = excluded.metadata_json,
            updated_at = excluded.updated_at`,
		t.DocumentID,
		string(segmentsJSON),
		nullableString(t.Language),
		t.Source,
		nullableFloat(t.ConfidenceScore),
		metadataJSON,
		now,
		now,
	); err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	return nil
}

// GetTranscript fetches the transcript for a document. Returns nil when absent.
func (s *Store) GetTranscript(ctx context.Context, documentID string) (*Transcript, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, document_id, segments_json, language, source, confidence_score, metadata_json, created_at, updated_at
         FROM transcripts WHERE document_id = ?`,
		documentID,
	)

	var (
		id          int64
		docID       string
		segmentsRaw string
		language    sql.NullString
		source      string
		confidence  sql.NullFloat64
		metadataRaw sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	err := row.Scan(&id, &docID, &segmentsRaw, &language, &source, &confidence, &metadataRaw, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	t := &Transcript{
		ID:         id,
		DocumentID: docID,
		Language:   language.String,
		Source:     source,
	}
	if err := json.Unmarshal([]byte(segmentsRaw), &t.Segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	if confidence.Valid {
		v := confidence.Float64
		t.ConfidenceScore = &v
	}
	if metadataRaw.Valid && metadataRaw.String != "" {
		if err := json.Unmarshal([]byte(metadataRaw.String), &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		t.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		t.UpdatedAt = updated
	}
	return t, nil
}

// CountTranscripts reports how many transcript rows exist for a document.
// The unique constraint should keep this at most 1; exposed for tests and
// diagnostics.
func (s *Store) CountTranscripts(ctx context.Context, documentID string) (int, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM transcripts WHERE document_id = ?`, documentID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return count, nil
}
