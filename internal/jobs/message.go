package jobs

import "strings"

// JobMessage is one queued transcription job. The work-item reference may
// arrive at the top level or nested in the message payload; DocumentID
// normalizes both shapes.
type JobMessage struct {
	MsgID      int64  `json:"msg_id"`
	ReadCt     int    `json:"read_ct"`
	DocumentID string `json:"document_id"`
	Message    *struct {
		DocumentID string `json:"document_id"`
	} `json:"message,omitempty"`
	SkipSubtitles bool `json:"skip_subtitles,omitempty"`
}

// WorkItemID returns the normalized work-item reference, preferring the
// top-level field.
func (m JobMessage) WorkItemID() string {
	if id := strings.TrimSpace(m.DocumentID); id != "" {
		return id
	}
	if m.Message != nil {
		return strings.TrimSpace(m.Message.DocumentID)
	}
	return ""
}

// BatchRequest is the wire shape of an externally read batch of jobs.
type BatchRequest struct {
	Queue     string       `json:"queue"`
	VTSeconds int          `json:"vt_seconds"`
	Jobs      []JobMessage `json:"jobs"`
}
