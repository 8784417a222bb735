package subtitles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/store"
)

// Fetcher downloads caption track content over HTTP with a fixed-attempt,
// constant-delay retry.
type Fetcher struct {
	client   *http.Client
	attempts int
	delay    time.Duration
}

// NewFetcher constructs a fetcher from configuration.
func NewFetcher(cfg *config.Config) *Fetcher {
	timeout := time.Duration(cfg.Subtitles.FetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.Subtitles.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		delay:    time.Duration(cfg.Subtitles.FetchRetryDelay) * time.Second,
	}
}

// Fetch downloads the selected track and parses it into segments. The last
// transport error is surfaced after the retry budget is exhausted. Zero
// parsed segments is not an error; callers treat it as no subtitles.
func (f *Fetcher) Fetch(ctx context.Context, sel *Selection) ([]store.Segment, error) {
	if sel == nil || sel.Track.URL == "" {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "fetch", "no track selected", nil)
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sel.Track.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("track fetch returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.delay), uint64(f.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, services.Wrap(services.ErrTransient, "subtitles", "fetch", "download caption track", err)
	}

	return ParseTrack(sel.Track.Ext, string(body)), nil
}
