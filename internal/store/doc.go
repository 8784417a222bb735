// Package store persists work-item documents, transcripts, and the embedded
// job queue in SQLite and exposes helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, the
// compare-and-swap claim that serializes job execution per document, the
// upsert that keeps transcripts one-per-document, and a pgmq-shaped message
// queue with visibility timeouts, delete (ack), and archive (dead-letter)
// dispositions.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses or columns, update schema.sql and bump
// schemaVersion.
package store
