package jobs

import (
	"context"
	"encoding/json"

	"scribe/internal/logging"
	"scribe/internal/store"
)

// ProcessBatch dispatches the jobs of one batch sequentially, in order.
// Individual job failures never abort the loop.
func (p *Processor) ProcessBatch(ctx context.Context, req BatchRequest) BatchResponse {
	queue := req.Queue
	if queue == "" {
		queue = p.cfg.Queue.Name
	}

	response := BatchResponse{OK: true, Results: make([]JobResult, 0, len(req.Jobs))}
	for _, msg := range req.Jobs {
		if ctx.Err() != nil {
			break
		}
		result := p.ProcessMessage(ctx, queue, msg)
		response.Results = append(response.Results, result)
		response.Summary.add(result)
	}

	p.logger.Info("batch processed",
		logging.String(logging.FieldQueue, queue),
		logging.Int("total", response.Summary.Total),
		logging.Int("completed", response.Summary.Completed),
		logging.Int("retry", response.Summary.Retry),
		logging.Int("archived", response.Summary.Archived),
		logging.Int("deleted", response.Summary.Deleted))
	return response
}

// MessagesToJobs converts queue messages read from the embedded queue into
// the job shape, decoding each payload. Messages whose payload cannot be
// decoded still enter the batch; with no work-item reference they are
// archived by the policy.
func MessagesToJobs(messages []*store.Message) []JobMessage {
	jobs := make([]JobMessage, 0, len(messages))
	for _, msg := range messages {
		var job JobMessage
		_ = json.Unmarshal(msg.Payload, &job)
		job.MsgID = msg.MsgID
		job.ReadCt = msg.ReadCt
		jobs = append(jobs, job)
	}
	return jobs
}
