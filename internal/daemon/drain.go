package daemon

import (
	"context"
	"time"

	"scribe/internal/jobs"
	"scribe/internal/logging"
)

// drainLoop polls the embedded queue and feeds batches through the
// processor. Stale work items stuck in processing after a crash are
// periodically returned to pending before each poll.
func (d *Daemon) drainLoop(ctx context.Context) {
	pollInterval := time.Duration(d.cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	errorInterval := time.Duration(d.cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorInterval <= 0 {
		errorInterval = pollInterval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		interval := pollInterval
		if err := d.drainOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("queue drain failed", logging.Error(err))
			interval = errorInterval
		}
		timer.Reset(interval)
	}
}

// drainOnce reclaims stale items, reads one batch, and processes it.
func (d *Daemon) drainOnce(ctx context.Context) error {
	d.reclaimStale(ctx)

	messages, err := d.store.ReadBatch(
		ctx,
		d.cfg.Queue.Name,
		d.cfg.Queue.VisibilityTimeout,
		d.cfg.Queue.BatchSize,
	)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	d.processor.ProcessBatch(ctx, jobs.BatchRequest{
		Queue: d.cfg.Queue.Name,
		Jobs:  jobs.MessagesToJobs(messages),
	})
	return nil
}

// reclaimStale returns documents stuck in processing beyond the configured
// timeout to pending. Zero disables the reclaimer.
func (d *Daemon) reclaimStale(ctx context.Context) {
	timeout := time.Duration(d.cfg.Workflow.StaleProcessingTimeout) * time.Second
	if timeout <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-timeout)
	n, err := d.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		d.logger.Error("reclaim stale work items", logging.Error(err))
		return
	}
	if n > 0 {
		d.logger.Warn("reclaimed stale work items", logging.Int64("count", n))
	}
}
