package transcribe

import (
	"context"
	"sync/atomic"
)

// Gate is a counting semaphore bounding concurrent transcriptions. The bound
// is process-wide; every caller that runs an engine must hold a permit.
type Gate struct {
	permits  chan struct{}
	inFlight atomic.Int64
}

// NewGate constructs a gate with the given capacity. Capacity below one is
// clamped to one.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{permits: make(chan struct{}, capacity)}
}

// Acquire blocks until a permit is free or the context is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.permits <- struct{}{}:
		g.inFlight.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. Must be paired with a successful Acquire.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	<-g.permits
}

// InFlight reports how many permits are currently held.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}
