package jobs

// Job dispositions. Every processed message lands in exactly one.
const (
	StatusCompleted = "completed"
	StatusRetry     = "retry"
	StatusArchived  = "archived"
	StatusDeleted   = "deleted"
)

// JobResult is the per-message outcome reported back to the caller.
type JobResult struct {
	MsgID        int64  `json:"msg_id"`
	Status       string `json:"status"`
	DocumentID   string `json:"document_id,omitempty"`
	Error        string `json:"error,omitempty"`
	WordCount    int    `json:"word_count,omitempty"`
	SegmentCount int    `json:"segment_count,omitempty"`
}

// BatchSummary aggregates job results by disposition.
type BatchSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Retry     int `json:"retry"`
	Archived  int `json:"archived"`
	Deleted   int `json:"deleted"`
}

// BatchResponse is the wire shape returned for a processed batch.
type BatchResponse struct {
	OK      bool         `json:"ok"`
	Summary BatchSummary `json:"summary"`
	Results []JobResult  `json:"results"`
}

func (s *BatchSummary) add(result JobResult) {
	s.Total++
	switch result.Status {
	case StatusCompleted:
		s.Completed++
	case StatusRetry:
		s.Retry++
	case StatusArchived:
		s.Archived++
	case StatusDeleted:
		s.Deleted++
	}
}
