package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Send enqueues a payload on the named queue and returns the assigned msg_id.
func (s *Store) Send(ctx context.Context, queue string, payload any) (int64, error) {
	if queue == "" {
		return 0, errors.New("queue name is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_messages (queue_name, payload_json, read_ct, vt, enqueued_at)
         VALUES (?, ?, 0, ?, ?)`,
		queue,
		string(raw),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ReadBatch returns up to limit visible messages from the named queue,
// incrementing each message's read count and pushing its visibility deadline
// forward by vtSeconds. Unacknowledged messages reappear in a later read once
// the deadline lapses, with read_ct reflecting the redelivery.
func (s *Store) ReadBatch(ctx context.Context, queue string, vtSeconds, limit int) ([]*Message, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	deadline := now.Add(time.Duration(vtSeconds) * time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(
		ctx,
		`SELECT msg_id, queue_name, payload_json, read_ct, enqueued_at
         FROM queue_messages
         WHERE queue_name = ? AND vt <= ?
         ORDER BY msg_id
         LIMIT ?`,
		queue,
		timestamp(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ready messages: %w", err)
	}

	var messages []*Message
	for rows.Next() {
		var (
			msgID       int64
			queueName   string
			payloadRaw  string
			readCt      int
			enqueuedRaw string
		)
		if err := rows.Scan(&msgID, &queueName, &payloadRaw, &readCt, &enqueuedRaw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg := &Message{
			MsgID:     msgID,
			Queue:     queueName,
			ReadCt:    readCt + 1,
			Payload:   json.RawMessage(payloadRaw),
			VisibleAt: deadline,
		}
		if enqueued, err := parseTimeString(enqueuedRaw); err == nil {
			msg.EnqueuedAt = enqueued
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	rows.Close()

	for _, msg := range messages {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE queue_messages SET read_ct = ?, vt = ? WHERE msg_id = ?`,
			msg.ReadCt,
			timestamp(deadline),
			msg.MsgID,
		); err != nil {
			return nil, fmt.Errorf("advance visibility for msg %d: %w", msg.MsgID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read tx: %w", err)
	}
	return messages, nil
}

// Delete acknowledges a message by removing it from the queue.
func (s *Store) Delete(ctx context.Context, queue string, msgID int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queue_messages WHERE queue_name = ? AND msg_id = ?`,
		queue,
		msgID,
	)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}
	return affected > 0, nil
}

// Archive moves a message to the archive table as a permanent, inspectable
// failure record. The move is atomic; the message is never visible in both
// tables.
func (s *Store) Archive(ctx context.Context, queue string, msgID int64) (bool, error) {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(
		ctx,
		`SELECT payload_json, read_ct, enqueued_at FROM queue_messages WHERE queue_name = ? AND msg_id = ?`,
		queue,
		msgID,
	)
	var (
		payloadRaw  string
		readCt      int
		enqueuedRaw string
	)
	err = row.Scan(&payloadRaw, &readCt, &enqueuedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load message for archive: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO queue_archive (msg_id, queue_name, payload_json, read_ct, enqueued_at, archived_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		msgID,
		queue,
		payloadRaw,
		readCt,
		enqueuedRaw,
		timestamp(time.Now().UTC()),
	); err != nil {
		return false, fmt.Errorf("insert archive row: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM queue_messages WHERE queue_name = ? AND msg_id = ?`,
		queue,
		msgID,
	); err != nil {
		return false, fmt.Errorf("remove archived message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit archive tx: %w", err)
	}
	return true, nil
}

// QueueDepth counts messages currently on the named queue, visible or not.
func (s *Store) QueueDepth(ctx context.Context, queue string) (int, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM queue_messages WHERE queue_name = ?`, queue)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return count, nil
}

// ArchiveDepth counts archived messages for the named queue.
func (s *Store) ArchiveDepth(ctx context.Context, queue string) (int, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM queue_archive WHERE queue_name = ?`, queue)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("archive depth: %w", err)
	}
	return count, nil
}
