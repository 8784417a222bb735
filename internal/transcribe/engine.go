package transcribe

import (
	"context"
	"fmt"

	"scribe/internal/config"
	"scribe/internal/store"
)

// Result is the outcome of a transcription run.
type Result struct {
	Segments []store.Segment
	Language string
	// Model and Provider identify what produced the result, recorded into
	// transcript metadata.
	Model    string
	Provider string
	// ConfidenceScore is an average over segment confidences when the engine
	// reports them; nil otherwise.
	ConfidenceScore *float64
}

// Engine transcribes a local audio file. Language is an ISO hint; empty
// means auto-detect.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}

// ForConfig selects an engine from configuration.
func ForConfig(cfg *config.Config) (Engine, error) {
	switch cfg.Transcription.Provider {
	case "local", "":
		return NewWhisperX(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Transcription.Provider)
	}
}
