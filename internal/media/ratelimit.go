package media

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"scribe/internal/config"
)

// Limiter spaces calls to the upstream platform. When a call arrives sooner
// than the minimum interval after the previous one, the caller sleeps for a
// randomized delay before proceeding. A single limiter is shared by every
// component that talks upstream, so the spacing holds process-wide.
type Limiter struct {
	mu          sync.Mutex
	last        time.Time
	minInterval time.Duration
	minSleep    time.Duration
	maxSleep    time.Duration

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter constructs a limiter from configuration. A zero minimum interval
// disables spacing entirely.
func NewLimiter(cfg config.RateLimit) *Limiter {
	return &Limiter{
		minInterval: time.Duration(cfg.MinInterval) * time.Second,
		minSleep:    time.Duration(cfg.MinSleep) * time.Second,
		maxSleep:    time.Duration(cfg.MaxSleep) * time.Second,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Wait blocks until the caller may contact the upstream platform. The lock is
// held across the sleep so concurrent callers queue up rather than all
// sleeping from the same reference point.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.minInterval <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := l.now().Sub(l.last)
	if !l.last.IsZero() && elapsed < l.minInterval {
		if err := l.sleep(ctx, l.delay()); err != nil {
			return err
		}
	}
	l.last = l.now()
	return nil
}

// delay picks a uniform random duration in [minSleep, maxSleep].
func (l *Limiter) delay() time.Duration {
	if l.maxSleep <= l.minSleep {
		return l.minSleep
	}
	span := l.maxSleep - l.minSleep
	return l.minSleep + time.Duration(rand.Int63n(int64(span)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
