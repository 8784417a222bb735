package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/metrics"
	"scribe/internal/services"
	"scribe/internal/store"
)

// errorDetailLimit bounds the failure text persisted on the work item.
const errorDetailLimit = 500

// Processor runs single queued jobs end to end: claim, acquire content,
// persist the transcript, then acknowledge or leave the message for
// redelivery.
type Processor struct {
	store    *store.Store
	strategy *Strategy
	cfg      *config.Config
	logger   *slog.Logger
}

// NewProcessor wires the job processor.
func NewProcessor(cfg *config.Config, st *store.Store, strategy *Strategy, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		store:    st,
		strategy: strategy,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "jobs"),
	}
}

// ProcessMessage handles one queue message and returns its disposition. It
// never returns an error: every failure mode is translated into a retry,
// archive, or delete decision so the batch loop can continue.
func (p *Processor) ProcessMessage(ctx context.Context, queue string, msg JobMessage) JobResult {
	started := time.Now()
	result := p.processMessage(ctx, queue, msg)
	metrics.JobsProcessed.WithLabelValues(result.Status).Inc()
	metrics.JobDuration.Observe(time.Since(started).Seconds())
	return result
}

func (p *Processor) processMessage(ctx context.Context, queue string, msg JobMessage) JobResult {
	docID := msg.WorkItemID()
	ctx = services.WithMsgID(ctx, msg.MsgID)

	// A message with no work-item reference can never succeed; archive it
	// immediately instead of burning the retry budget.
	if docID == "" {
		p.archive(ctx, queue, msg.MsgID)
		p.logger.Warn("message missing work item identifier",
			logging.Int64(logging.FieldMsgID, msg.MsgID))
		return JobResult{MsgID: msg.MsgID, Status: StatusArchived, Error: "missing identifier"}
	}
	ctx = services.WithDocumentID(ctx, docID)

	claimed, err := p.store.ClaimDocument(ctx, docID)
	if err != nil {
		return p.fail(ctx, queue, msg, docID, atStep(stepValidate, fmt.Errorf("claim work item: %w", err)))
	}
	if !claimed {
		// Stale or duplicate delivery: the item is already being processed
		// or has reached a terminal state. Acknowledge and move on.
		p.delete(ctx, queue, msg.MsgID)
		p.logger.Info("work item not claimable, dropping message",
			logging.String(logging.FieldDocumentID, docID),
			logging.Int64(logging.FieldMsgID, msg.MsgID))
		return JobResult{MsgID: msg.MsgID, Status: StatusDeleted, DocumentID: docID}
	}

	doc, err := p.store.GetDocument(ctx, docID)
	if err != nil {
		return p.fail(ctx, queue, msg, docID, atStep(stepValidate, fmt.Errorf("load work item: %w", err)))
	}
	if doc == nil {
		return p.fail(ctx, queue, msg, docID, atStep(stepValidate, fmt.Errorf("work item %s disappeared after claim", docID)))
	}
	if doc.CanonicalURL == "" {
		return p.fail(ctx, queue, msg, docID, atStep(stepValidate, fmt.Errorf("work item has no canonical url")))
	}

	data, err := p.strategy.Acquire(ctx, doc, msg.SkipSubtitles)
	if err != nil {
		return p.fail(ctx, queue, msg, docID, err)
	}

	transcript := &store.Transcript{
		DocumentID:      docID,
		Segments:        data.Segments,
		Language:        data.Language,
		Source:          data.Source,
		ConfidenceScore: data.ConfidenceScore,
		Metadata:        data.Metadata,
	}
	if err := p.store.UpsertTranscript(ctx, transcript); err != nil {
		return p.fail(ctx, queue, msg, docID, atStep(stepPersist, err))
	}

	// The transcript is durable; a failed status write must not undo the
	// acknowledgment.
	if err := p.store.MarkCompleted(ctx, docID); err != nil {
		p.logger.Error("mark completed", logging.Error(err),
			logging.String(logging.FieldDocumentID, docID))
	}
	p.delete(ctx, queue, msg.MsgID)

	p.logger.Info("job completed",
		logging.String(logging.FieldDocumentID, docID),
		logging.Int64(logging.FieldMsgID, msg.MsgID),
		logging.String("source", data.Source),
		logging.Int("segments", len(data.Segments)))
	return JobResult{
		MsgID:        msg.MsgID,
		Status:       StatusCompleted,
		DocumentID:   docID,
		WordCount:    data.wordCount(),
		SegmentCount: len(data.Segments),
	}
}

// fail applies the retry-versus-archive policy for one failed job. Status
// writes are best effort; the message disposition always takes priority.
func (p *Processor) fail(ctx context.Context, queue string, msg JobMessage, docID string, cause error) JobResult {
	detail := services.Truncate(cause.Error(), errorDetailLimit)
	maxRetries := p.cfg.Queue.MaxRetries

	if msg.ReadCt >= maxRetries {
		summary := fmt.Sprintf("failed after %d attempts: %s", msg.ReadCt, detail)
		if err := p.store.MarkError(ctx, docID, services.Truncate(summary, errorDetailLimit)); err != nil {
			p.logger.Error("mark error", logging.Error(err),
				logging.String(logging.FieldDocumentID, docID))
		}
		p.archive(ctx, queue, msg.MsgID)
		p.logger.Warn("job exhausted retries, archived",
			logging.String(logging.FieldDocumentID, docID),
			logging.Int64(logging.FieldMsgID, msg.MsgID),
			logging.Int("read_ct", msg.ReadCt),
			logging.String("error", detail))
		return JobResult{MsgID: msg.MsgID, Status: StatusArchived, DocumentID: docID, Error: detail}
	}

	retryDetail := fmt.Sprintf("retry %d/%d: %s", msg.ReadCt, maxRetries, detail)
	if err := p.store.MarkRetry(ctx, docID, services.Truncate(retryDetail, errorDetailLimit)); err != nil {
		p.logger.Error("mark retry", logging.Error(err),
			logging.String(logging.FieldDocumentID, docID))
	}
	// No acknowledgment: the message reappears after the visibility timeout
	// with an incremented read count.
	p.logger.Warn("job failed, leaving message for redelivery",
		logging.String(logging.FieldDocumentID, docID),
		logging.Int64(logging.FieldMsgID, msg.MsgID),
		logging.Int("read_ct", msg.ReadCt),
		logging.String("error", detail))
	return JobResult{MsgID: msg.MsgID, Status: StatusRetry, DocumentID: docID, Error: detail}
}

func (p *Processor) delete(ctx context.Context, queue string, msgID int64) {
	if _, err := p.store.Delete(ctx, queue, msgID); err != nil {
		p.logger.Error("delete message", logging.Error(err),
			logging.Int64(logging.FieldMsgID, msgID))
	}
}

func (p *Processor) archive(ctx context.Context, queue string, msgID int64) {
	if _, err := p.store.Archive(ctx, queue, msgID); err != nil {
		p.logger.Error("archive message", logging.Error(err),
			logging.Int64(logging.FieldMsgID, msgID))
	}
}
