package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/metrics"
	"scribe/internal/store"
	"scribe/internal/subtitles"
	"scribe/internal/transcribe"
)

// Pipeline step names carried into persisted error details.
const (
	stepValidate   = "validating work item"
	stepMetadata   = "fetching metadata"
	stepSubtitles  = "fetching subtitles"
	stepExtract    = "extracting audio"
	stepTranscribe = "transcribing audio"
	stepPersist    = "persisting transcript"
)

// Strategy chooses between the cheap subtitle path and the expensive
// audio-transcription path, producing one uniform transcript shape.
type Strategy struct {
	tool    media.Tool
	fetcher *subtitles.Fetcher
	engine  transcribe.Engine
	gate    *transcribe.Gate
	cfg     *config.Config
	logger  *slog.Logger
}

// NewStrategy wires the acquisition strategy. The gate must be the shared
// process-wide instance so HTTP-triggered transcriptions and batch jobs
// respect one ceiling.
func NewStrategy(
	cfg *config.Config,
	tool media.Tool,
	fetcher *subtitles.Fetcher,
	engine transcribe.Engine,
	gate *transcribe.Gate,
	logger *slog.Logger,
) *Strategy {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Strategy{
		tool:    tool,
		fetcher: fetcher,
		engine:  engine,
		gate:    gate,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "acquisition"),
	}
}

// Acquire runs the strategy for one claimed work item. The subtitle path is
// tried first for video items unless skipped; a track that yields zero
// segments falls through to the audio path rather than failing.
func (s *Strategy) Acquire(ctx context.Context, doc *store.Document, skipSubtitles bool) (*transcriptData, error) {
	started := time.Now()

	if s.subtitlePathEligible(doc, skipSubtitles) {
		data, err := s.trySubtitles(ctx, doc, started)
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
	}
	return s.transcribeAudio(ctx, doc, started)
}

func (s *Strategy) subtitlePathEligible(doc *store.Document, skipSubtitles bool) bool {
	if !s.cfg.Subtitles.Enabled || skipSubtitles {
		return false
	}
	return doc.MediaFormat == store.FormatVideo
}

// trySubtitles returns (nil, nil) when no usable track exists, signalling
// fall-through to the audio path.
func (s *Strategy) trySubtitles(ctx context.Context, doc *store.Document, started time.Time) (*transcriptData, error) {
	meta, err := s.fetchMetadata(ctx, doc.CanonicalURL)
	if err != nil {
		return nil, atStep(stepMetadata, err)
	}

	sel := subtitles.PickTrack(meta, doc.Language)
	if sel == nil {
		s.logger.Debug("no caption track available",
			logging.String(logging.FieldDocumentID, doc.ID))
		return nil, nil
	}

	segments, err := s.fetcher.Fetch(ctx, sel)
	if err != nil {
		return nil, atStep(stepSubtitles, err)
	}
	if len(segments) == 0 {
		s.logger.Debug("caption track parsed to zero segments",
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.String("track_language", sel.Language))
		return nil, nil
	}

	data := &transcriptData{
		Segments: segments,
		Language: sel.Language,
		Source:   store.SourceSubtitle,
		Metadata: map[string]any{
			"track_format":  sel.Track.Ext,
			"auto_captions": sel.Auto,
			"segment_count": len(segments),
			"processing_ms": time.Since(started).Milliseconds(),
		},
	}
	data.Metadata["word_count"] = data.wordCount()
	return data, nil
}

// fetchMetadata applies the same fixed-attempt constant-delay retry the
// subtitle fetch uses. The media tool itself handles upstream rate limiting.
func (s *Strategy) fetchMetadata(ctx context.Context, url string) (*media.Metadata, error) {
	attempts := s.cfg.Subtitles.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := time.Duration(s.cfg.Subtitles.FetchRetryDelay) * time.Second

	var meta *media.Metadata
	operation := func() error {
		var err error
		meta, err = s.tool.FetchMetadata(ctx, url)
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return meta, nil
}

// transcribeAudio extracts an audio artifact and runs the engine inside the
// concurrency gate. The artifact is removed afterwards regardless of outcome.
func (s *Strategy) transcribeAudio(ctx context.Context, doc *store.Document, started time.Time) (*transcriptData, error) {
	artifact, err := s.tool.ExtractAudio(ctx, doc.CanonicalURL)
	if err != nil {
		return nil, atStep(stepExtract, err)
	}
	defer func() {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove audio artifact", logging.Error(err),
				logging.String("path", artifact.Path))
		}
	}()

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, atStep(stepTranscribe, fmt.Errorf("acquire transcription permit: %w", err))
	}
	metrics.TranscriptionsInFlight.Inc()
	result, err := s.engine.Transcribe(ctx, artifact.Path, doc.Language)
	metrics.TranscriptionsInFlight.Dec()
	s.gate.Release()
	if err != nil {
		return nil, atStep(stepTranscribe, err)
	}

	data := &transcriptData{
		Segments:        result.Segments,
		Language:        result.Language,
		Source:          store.SourceAI,
		ConfidenceScore: result.ConfidenceScore,
		Metadata: map[string]any{
			"model":         result.Model,
			"provider":      result.Provider,
			"segment_count": len(result.Segments),
			"processing_ms": time.Since(started).Milliseconds(),
		},
	}
	data.Metadata["word_count"] = data.wordCount()
	return data, nil
}
