package store

import (
	"encoding/json"
	"strings"
	"time"
)

// DocumentStatus represents the processing lifecycle of a work item.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

var statusSet = map[DocumentStatus]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusError:      {},
}

// ParseStatus converts a string into a known DocumentStatus.
func ParseStatus(value string) (DocumentStatus, bool) {
	normalized := DocumentStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// MediaFormat distinguishes video sources (which may carry captions) from
// audio-only sources.
type MediaFormat string

const (
	FormatVideo MediaFormat = "video"
	FormatAudio MediaFormat = "audio"
)

// Transcript sources.
const (
	SourceSubtitle = "subtitle"
	SourceAI       = "ai"
)

// Document represents a persisted work item: one piece of media to transcribe.
type Document struct {
	ID              string
	CanonicalURL    string
	MediaFormat     MediaFormat
	Language        string
	Title           string
	Status          DocumentStatus
	ProcessingError string
	ProcessedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Word carries a word-level timing inside a segment.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one timed span of transcript text. IDs are sequential from 1.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// WordCount sums whitespace-separated words across segments.
func WordCount(segments []Segment) int {
	total := 0
	for _, seg := range segments {
		total += len(strings.Fields(seg.Text))
	}
	return total
}

// Transcript is the persisted transcription record, one per document.
type Transcript struct {
	ID              int64
	DocumentID      string
	Segments        []Segment
	Language        string
	Source          string
	ConfidenceScore *float64
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Message is a queue message as read from the embedded queue. ReadCt reflects
// the delivery count including the read that returned it.
type Message struct {
	MsgID      int64
	Queue      string
	ReadCt     int
	Payload    json.RawMessage
	EnqueuedAt time.Time
	VisibleAt  time.Time
}

// HealthSummary describes aggregated document counts per lifecycle state.
type HealthSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Errored    int `json:"errored"`
}
