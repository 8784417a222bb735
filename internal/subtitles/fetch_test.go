package subtitles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"scribe/internal/config"
	"scribe/internal/media"
)

func newTestFetcher() *Fetcher {
	cfg := config.Default()
	cfg.Subtitles.FetchAttempts = 3
	cfg.Subtitles.FetchRetryDelay = 0
	return NewFetcher(&cfg)
}

func TestFetchParsesDownloadedTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1\n00:00:00,000 --> 00:00:02,000\nhello\n"))
	}))
	defer server.Close()

	segments, err := newTestFetcher().Fetch(context.Background(), &Selection{
		Track:    media.CaptionTrack{Ext: "srt", URL: server.URL},
		Language: "en",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "hello" {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("1\n00:00:00,000 --> 00:00:01,000\nok\n"))
	}))
	defer server.Close()

	segments, err := newTestFetcher().Fetch(context.Background(), &Selection{
		Track: media.CaptionTrack{Ext: "srt", URL: server.URL},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
}

func TestFetchRaisesAfterExhaustion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), &Selection{
		Track: media.CaptionTrack{Ext: "vtt", URL: server.URL},
	})
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls.Load())
	}
}

func TestFetchRejectsMissingSelection(t *testing.T) {
	if _, err := newTestFetcher().Fetch(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil selection")
	}
}
