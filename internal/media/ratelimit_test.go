package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"scribe/internal/config"
)

func newTestLimiter(minInterval, minSleep, maxSleep int) (*Limiter, *[]time.Duration, *time.Time) {
	limiter := NewLimiter(config.RateLimit{
		MinInterval: minInterval,
		MinSleep:    minSleep,
		MaxSleep:    maxSleep,
	})

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var slept []time.Duration
	limiter.now = func() time.Time { return clock }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return limiter, &slept, &clock
}

func TestLimiterFirstCallNeverSleeps(t *testing.T) {
	limiter, slept, _ := newTestLimiter(5, 2, 4)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("first call should not sleep, slept %v", *slept)
	}
}

func TestLimiterSleepsWithinBoundsWhenCallsAreClose(t *testing.T) {
	limiter, slept, clock := newTestLimiter(5, 2, 4)
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	*clock = clock.Add(1 * time.Second)
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if len(*slept) != 1 {
		t.Fatalf("expected one sleep, got %d", len(*slept))
	}
	d := (*slept)[0]
	if d < 2*time.Second || d > 4*time.Second {
		t.Fatalf("sleep %v outside [2s, 4s]", d)
	}
}

func TestLimiterSkipsSleepAfterInterval(t *testing.T) {
	limiter, slept, clock := newTestLimiter(5, 2, 4)
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	*clock = clock.Add(6 * time.Second)
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("spaced calls should not sleep, slept %v", *slept)
	}
}

func TestLimiterZeroIntervalDisabled(t *testing.T) {
	limiter := NewLimiter(config.RateLimit{})
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
}

func TestLimiterPropagatesCancellation(t *testing.T) {
	limiter, _, _ := newTestLimiter(5, 2, 4)
	sentinel := errors.New("canceled")
	limiter.sleep = func(context.Context, time.Duration) error { return sentinel }

	ctx := context.Background()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := limiter.Wait(ctx); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}
