package store_test

import (
	"context"
	"testing"
	"time"

	"scribe/internal/store"
	"scribe/internal/testsupport"
)

func TestClaimDocumentOnlyFromPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-1", "https://example.com/v/1")

	claimed, err := st.ClaimDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	// Second claim must fail: status is now processing.
	claimed, err = st.ClaimDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("expected duplicate claim to fail")
	}

	doc, err := st.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Status != store.StatusProcessing {
		t.Fatalf("expected processing, got %s", doc.Status)
	}
}

func TestClaimTerminalAndMissingDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-done", "https://example.com/v/2")
	if ok, _ := st.ClaimDocument(ctx, "doc-done"); !ok {
		t.Fatal("setup claim failed")
	}
	if err := st.MarkCompleted(ctx, "doc-done"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	claimed, err := st.ClaimDocument(ctx, "doc-done")
	if err != nil {
		t.Fatalf("claim completed: %v", err)
	}
	if claimed {
		t.Fatal("completed documents must not be claimable")
	}

	claimed, err = st.ClaimDocument(ctx, "doc-absent")
	if err != nil {
		t.Fatalf("claim absent: %v", err)
	}
	if claimed {
		t.Fatal("missing documents must not be claimable")
	}
}

func TestMarkRetryAndErrorTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-2", "https://example.com/v/3")
	if ok, _ := st.ClaimDocument(ctx, "doc-2"); !ok {
		t.Fatal("claim failed")
	}

	if err := st.MarkRetry(ctx, "doc-2", "retry 1/5: [extracting audio] timeout"); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	doc, _ := st.GetDocument(ctx, "doc-2")
	if doc.Status != store.StatusPending {
		t.Fatalf("expected pending after retry, got %s", doc.Status)
	}
	if doc.ProcessingError == "" {
		t.Fatal("retry detail should be recorded")
	}

	if ok, _ := st.ClaimDocument(ctx, "doc-2"); !ok {
		t.Fatal("document should be claimable again after retry")
	}
	if err := st.MarkError(ctx, "doc-2", "failed after 5 attempts"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	doc, _ = st.GetDocument(ctx, "doc-2")
	if doc.Status != store.StatusError {
		t.Fatalf("expected error status, got %s", doc.Status)
	}
}

func TestMarkCompletedClearsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	doc := &store.Document{ID: "doc-3", CanonicalURL: "https://example.com/v/4", ProcessingError: "old failure"}
	if err := st.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, _ := st.ClaimDocument(ctx, "doc-3"); !ok {
		t.Fatal("claim failed")
	}
	if err := st.MarkCompleted(ctx, "doc-3"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, _ := st.GetDocument(ctx, "doc-3")
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.ProcessingError != "" {
		t.Fatalf("completion must clear processing_error, got %q", got.ProcessingError)
	}
	if got.ProcessedAt == nil {
		t.Fatal("completion must stamp processed_at")
	}
}

func TestUpsertTranscriptIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-4", "https://example.com/v/5")

	first := &store.Transcript{
		DocumentID: "doc-4",
		Segments: []store.Segment{
			{ID: 1, Start: 0, End: 2.5, Text: "hello there"},
			{ID: 2, Start: 2.5, End: 4.0, Text: "general"},
		},
		Language: "en",
		Source:   store.SourceSubtitle,
	}
	if err := st.UpsertTranscript(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &store.Transcript{
		DocumentID: "doc-4",
		Segments:   []store.Segment{{ID: 1, Start: 0, End: 3.0, Text: "hello there general"}},
		Language:   "en",
		Source:     store.SourceAI,
		Metadata:   map[string]any{"model": "whisper-medium"},
	}
	if err := st.UpsertTranscript(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	count, err := st.CountTranscripts(ctx, "doc-4")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one transcript row, got %d", count)
	}

	got, err := st.GetTranscript(ctx, "doc-4")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if got.Source != store.SourceAI {
		t.Fatalf("expected replacement to win, got source %s", got.Source)
	}
	if len(got.Segments) != 1 {
		t.Fatalf("expected 1 segment after replace, got %d", len(got.Segments))
	}
	if got.Metadata["model"] != "whisper-medium" {
		t.Fatalf("metadata round-trip failed: %v", got.Metadata)
	}
}

func TestQueueReadIncrementsReadCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	msgID, err := st.Send(ctx, "jobs", map[string]string{"document_id": "doc-5"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := st.ReadBatch(ctx, "jobs", 1, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MsgID != msgID {
		t.Fatalf("expected the sent message back, got %+v", msgs)
	}
	if msgs[0].ReadCt != 1 {
		t.Fatalf("expected read_ct 1 on first delivery, got %d", msgs[0].ReadCt)
	}

	// Within the visibility timeout the message must be invisible.
	msgs, err = st.ReadBatch(ctx, "jobs", 1, 10)
	if err != nil {
		t.Fatalf("read during vt: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("message should be invisible during vt, got %d", len(msgs))
	}

	time.Sleep(1100 * time.Millisecond)
	msgs, err = st.ReadBatch(ctx, "jobs", 1, 10)
	if err != nil {
		t.Fatalf("read after vt: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("message should reappear after vt, got %d", len(msgs))
	}
	if msgs[0].ReadCt != 2 {
		t.Fatalf("expected read_ct 2 on redelivery, got %d", msgs[0].ReadCt)
	}
}

func TestQueueDeleteAndArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	delID, err := st.Send(ctx, "jobs", map[string]string{"document_id": "a"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	arcID, err := st.Send(ctx, "jobs", map[string]string{"document_id": "b"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	ok, err := st.Delete(ctx, "jobs", delID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	// Deleting twice is harmless and reports false.
	ok, err = st.Delete(ctx, "jobs", delID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Fatal("second delete should report no rows")
	}

	ok, err = st.Archive(ctx, "jobs", arcID)
	if err != nil || !ok {
		t.Fatalf("archive: ok=%v err=%v", ok, err)
	}
	ok, err = st.Archive(ctx, "jobs", arcID)
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if ok {
		t.Fatal("second archive should report no rows")
	}

	depth, err := st.QueueDepth(ctx, "jobs")
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 0 {
		t.Fatalf("expected empty queue, got %d", depth)
	}
	archived, err := st.ArchiveDepth(ctx, "jobs")
	if err != nil {
		t.Fatalf("archive depth: %v", err)
	}
	if archived != 1 {
		t.Fatalf("expected one archived message, got %d", archived)
	}
}

func TestReclaimStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "doc-stale", "https://example.com/v/6")
	if ok, _ := st.ClaimDocument(ctx, "doc-stale"); !ok {
		t.Fatal("claim failed")
	}

	// Cutoff in the future treats the fresh claim as stale.
	n, err := st.ReclaimStale(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one reclaimed document, got %d", n)
	}
	doc, _ := st.GetDocument(ctx, "doc-stale")
	if doc.Status != store.StatusPending {
		t.Fatalf("expected pending after reclaim, got %s", doc.Status)
	}

	// Cutoff in the past leaves fresh claims alone.
	if ok, _ := st.ClaimDocument(ctx, "doc-stale"); !ok {
		t.Fatal("reclaim should have made the document claimable")
	}
	n, err = st.ReclaimStale(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("reclaim with past cutoff: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh claims must not be reclaimed, got %d", n)
	}
}

func TestHealthAggregates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedDocument(t, st, "h-1", "u")
	testsupport.SeedDocument(t, st, "h-2", "u")
	if ok, _ := st.ClaimDocument(ctx, "h-2"); !ok {
		t.Fatal("claim failed")
	}

	health, err := st.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}
}
