package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
	"scribe/internal/media"
	"scribe/internal/store"
	"scribe/internal/subtitles"
	"scribe/internal/testsupport"
	"scribe/internal/transcribe"
)

type fakeTool struct {
	meta       *media.Metadata
	metaErr    error
	audioDir   string
	extractErr error
}

func (f *fakeTool) FetchMetadata(context.Context, string) (*media.Metadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeTool) ExtractAudio(context.Context, string) (*media.AudioArtifact, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	path := filepath.Join(f.audioDir, "audio.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return nil, err
	}
	return &media.AudioArtifact{Path: path, Format: "mp3"}, nil
}

type fakeEngine struct {
	result *transcribe.Result
	err    error
}

func (f *fakeEngine) Transcribe(context.Context, string, string) (*transcribe.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func aiResult() *transcribe.Result {
	return &transcribe.Result{
		Segments: []store.Segment{{ID: 1, Start: 0, End: 2, Text: "hello from the engine"}},
		Language: "en",
		Model:    "medium",
		Provider: "whisperx",
	}
}

func newProcessor(t *testing.T, cfg *config.Config, st *store.Store, tool media.Tool, engine transcribe.Engine) *Processor {
	t.Helper()
	strategy := NewStrategy(cfg, tool, subtitles.NewFetcher(cfg), engine, transcribe.NewGate(cfg.Transcription.MaxConcurrent), nil)
	return NewProcessor(cfg, st, strategy, nil)
}

func sendJob(t *testing.T, st *store.Store, cfg *config.Config, docID string) int64 {
	t.Helper()
	msgID, err := st.Send(context.Background(), cfg.Queue.Name, map[string]string{"document_id": docID})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return msgID
}

func TestProcessMessageSubtitlePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1\n00:00:00,000 --> 00:00:02,000\nhello from captions\n"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-a", "https://example.com/v/a")
	msgID := sendJob(t, st, cfg, "doc-a")

	tool := &fakeTool{meta: &media.Metadata{
		Subtitles: map[string][]media.CaptionTrack{
			"en": {{Ext: "srt", URL: server.URL}},
		},
	}}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{err: errors.New("engine must not run")})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 1, DocumentID: "doc-a"})
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}
	if result.SegmentCount == 0 || result.WordCount == 0 {
		t.Errorf("expected counts on result: %+v", result)
	}

	transcript, err := st.GetTranscript(ctx, "doc-a")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if transcript.Source != store.SourceSubtitle {
		t.Errorf("expected subtitle source, got %q", transcript.Source)
	}
	doc, _ := st.GetDocument(ctx, "doc-a")
	if doc.Status != store.StatusCompleted {
		t.Errorf("expected completed document, got %s", doc.Status)
	}
	if depth, _ := st.QueueDepth(ctx, cfg.Queue.Name); depth != 0 {
		t.Errorf("message should be deleted, depth %d", depth)
	}
}

func TestProcessMessageFallsBackToAudioPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-b", "https://example.com/v/b")
	msgID := sendJob(t, st, cfg, "doc-b")

	tool := &fakeTool{meta: &media.Metadata{}, audioDir: t.TempDir()}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{result: aiResult()})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 1, DocumentID: "doc-b"})
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}

	transcript, err := st.GetTranscript(ctx, "doc-b")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if transcript.Source != store.SourceAI {
		t.Errorf("expected ai source, got %q", transcript.Source)
	}
}

func TestProcessMessageAlreadyTerminalDeletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-c", "https://example.com/v/c")
	if ok, _ := st.ClaimDocument(ctx, "doc-c"); !ok {
		t.Fatal("claim failed")
	}
	if err := st.MarkCompleted(ctx, "doc-c"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	msgID := sendJob(t, st, cfg, "doc-c")

	tool := &fakeTool{metaErr: errors.New("tool must not run")}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{err: errors.New("engine must not run")})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 1, DocumentID: "doc-c"})
	if result.Status != StatusDeleted {
		t.Fatalf("expected deleted, got %+v", result)
	}
	if result.Error != "" {
		t.Errorf("stale delivery must not record an error: %q", result.Error)
	}
	if depth, _ := st.QueueDepth(ctx, cfg.Queue.Name); depth != 0 {
		t.Errorf("message should be deleted, depth %d", depth)
	}
}

func TestProcessMessageRetryLeavesMessageUnacked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-r", "https://example.com/v/r")
	msgID := sendJob(t, st, cfg, "doc-r")

	tool := &fakeTool{meta: &media.Metadata{}, extractErr: errors.New("network down")}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{result: aiResult()})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 1, DocumentID: "doc-r"})
	if result.Status != StatusRetry {
		t.Fatalf("expected retry, got %+v", result)
	}
	if result.Error == "" {
		t.Error("retry result should carry the failure detail")
	}

	doc, _ := st.GetDocument(ctx, "doc-r")
	if doc.Status != store.StatusPending {
		t.Errorf("work item must return to pending, got %s", doc.Status)
	}
	if doc.ProcessingError == "" {
		t.Error("retry detail should be persisted")
	}
	if depth, _ := st.QueueDepth(ctx, cfg.Queue.Name); depth != 1 {
		t.Errorf("message must stay queued for redelivery, depth %d", depth)
	}
}

func TestProcessMessageExhaustedRetriesArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxRetries(5))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-d", "https://example.com/v/d")
	msgID := sendJob(t, st, cfg, "doc-d")

	tool := &fakeTool{meta: &media.Metadata{}, extractErr: errors.New("still broken")}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{result: aiResult()})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 5, DocumentID: "doc-d"})
	if result.Status != StatusArchived {
		t.Fatalf("expected archived, got %+v", result)
	}

	doc, _ := st.GetDocument(ctx, "doc-d")
	if doc.Status != store.StatusError {
		t.Errorf("work item must reach error, got %s", doc.Status)
	}
	if depth, _ := st.QueueDepth(ctx, cfg.Queue.Name); depth != 0 {
		t.Errorf("message should leave the queue, depth %d", depth)
	}
	if archived, _ := st.ArchiveDepth(ctx, cfg.Queue.Name); archived != 1 {
		t.Errorf("message should be archived exactly once, got %d", archived)
	}
}

func TestProcessMessageMissingIdentifierArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	msgID, err := st.Send(ctx, cfg.Queue.Name, map[string]string{"unrelated": "payload"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	tool := &fakeTool{metaErr: errors.New("tool must not run")}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{err: errors.New("engine must not run")})

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, JobMessage{MsgID: msgID, ReadCt: 1})
	if result.Status != StatusArchived {
		t.Fatalf("expected archived, got %+v", result)
	}
	if result.Error != "missing identifier" {
		t.Errorf("expected reason 'missing identifier', got %q", result.Error)
	}
	if archived, _ := st.ArchiveDepth(ctx, cfg.Queue.Name); archived != 1 {
		t.Errorf("expected archived message, got %d", archived)
	}
}

func TestProcessMessageNestedIdentifierAccepted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-n", "https://example.com/v/n")
	msgID := sendJob(t, st, cfg, "doc-n")

	tool := &fakeTool{meta: &media.Metadata{}, audioDir: t.TempDir()}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{result: aiResult()})

	msg := JobMessage{MsgID: msgID, ReadCt: 1}
	msg.Message = &struct {
		DocumentID string `json:"document_id"`
	}{DocumentID: "doc-n"}

	result := proc.ProcessMessage(ctx, cfg.Queue.Name, msg)
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed via nested identifier, got %+v", result)
	}
}

func TestProcessBatchAggregatesAndContinuesPastFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "batch-ok", "https://example.com/v/ok")
	testsupport.SeedDocument(t, st, "batch-bad", "")
	okID := sendJob(t, st, cfg, "batch-ok")
	badID := sendJob(t, st, cfg, "batch-bad")
	missingID, err := st.Send(ctx, cfg.Queue.Name, map[string]string{})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	tool := &fakeTool{meta: &media.Metadata{}, audioDir: t.TempDir()}
	proc := newProcessor(t, cfg, st, tool, &fakeEngine{result: aiResult()})

	resp := proc.ProcessBatch(ctx, BatchRequest{
		Queue: cfg.Queue.Name,
		Jobs: []JobMessage{
			{MsgID: missingID, ReadCt: 1},
			{MsgID: badID, ReadCt: 1, DocumentID: "batch-bad"},
			{MsgID: okID, ReadCt: 1, DocumentID: "batch-ok"},
		},
	})

	if !resp.OK {
		t.Error("batch response should be ok")
	}
	if resp.Summary.Total != 3 {
		t.Fatalf("expected 3 results, got %+v", resp.Summary)
	}
	if resp.Summary.Completed != 1 || resp.Summary.Retry != 1 || resp.Summary.Archived != 1 {
		t.Fatalf("unexpected summary %+v", resp.Summary)
	}
	// Order is preserved: results match job order.
	if resp.Results[0].Status != StatusArchived || resp.Results[2].Status != StatusCompleted {
		t.Fatalf("batch order not preserved: %+v", resp.Results)
	}
}

func TestMessagesToJobsNormalizesPayloads(t *testing.T) {
	messages := []*store.Message{
		{MsgID: 7, ReadCt: 2, Payload: []byte(`{"document_id": "top"}`)},
		{MsgID: 8, ReadCt: 1, Payload: []byte(`{"message": {"document_id": "nested"}, "skip_subtitles": true}`)},
		{MsgID: 9, ReadCt: 1, Payload: []byte(`not json`)},
	}
	jobs := MessagesToJobs(messages)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].WorkItemID() != "top" || jobs[0].MsgID != 7 || jobs[0].ReadCt != 2 {
		t.Errorf("top-level shape mishandled: %+v", jobs[0])
	}
	if jobs[1].WorkItemID() != "nested" || !jobs[1].SkipSubtitles {
		t.Errorf("nested shape mishandled: %+v", jobs[1])
	}
	if jobs[2].WorkItemID() != "" {
		t.Errorf("undecodable payload should yield empty identifier: %+v", jobs[2])
	}
}
