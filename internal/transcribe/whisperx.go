package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/store"
)

const (
	uvxCommand    = "uvx"
	pypiIndexURL  = "https://pypi.org/simple"
	cudaIndexURL  = "https://download.pytorch.org/whl/cu124"
	cpuDevice     = "cpu"
	cudaDevice    = "cuda"
	cpuComputeTyp = "int8"
)

// WhisperX runs the WhisperX CLI through uvx and parses its JSON output.
type WhisperX struct {
	model       string
	cudaEnabled bool

	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisperX constructs a local engine from configuration.
func NewWhisperX(cfg *config.Config) *WhisperX {
	model := cfg.Transcription.Model
	if model == "" {
		model = "medium"
	}
	return &WhisperX{
		model:       model,
		cudaEnabled: cfg.Transcription.CUDAEnabled,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.commandRunner = runner
}

// Transcribe runs WhisperX against the audio file and returns the parsed
// segments. Output files are written to a temporary directory and removed
// when the run completes.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "whisperx", "audio path is required", nil)
	}

	outputDir, err := os.MkdirTemp("", "whisperx-*")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	args := w.buildArgs(audioPath, outputDir, language)
	if err := w.run(ctx, uvxCommand, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "run whisperx", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	segments, detected, err := loadWhisperXOutput(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "parse whisperx output", err)
	}

	if language == "" {
		language = detected
	}
	return &Result{
		Segments: segments,
		Language: language,
		Model:    w.model,
		Provider: "whisperx",
	}, nil
}

func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (w *WhisperX) buildArgs(audioPath, outputDir, language string) []string {
	args := make([]string, 0, 16)

	if w.cudaEnabled {
		args = append(args, "--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL)
	} else {
		args = append(args, "--index-url", pypiIndexURL)
	}

	args = append(args,
		"whisperx",
		audioPath,
		"--model", w.model,
		"--output_dir", outputDir,
		"--output_format", "json",
	)
	if language != "" {
		args = append(args, "--language", language)
	}
	if w.cudaEnabled {
		args = append(args, "--device", cudaDevice)
	} else {
		args = append(args, "--device", cpuDevice, "--compute_type", cpuComputeTyp)
	}
	return args
}

type whisperXPayload struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
	Language string `json:"language"`
}

// loadWhisperXOutput parses the JSON file WhisperX writes, renumbering
// segments sequentially from 1.
func loadWhisperXOutput(jsonPath string) ([]store.Segment, string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, "", err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, "", fmt.Errorf("parse whisperx json: %w", err)
	}

	var segments []store.Segment
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segment := store.Segment{
			ID:    len(segments) + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		}
		for _, word := range seg.Words {
			segment.Words = append(segment.Words, store.Word{
				Word:  word.Word,
				Start: word.Start,
				End:   word.End,
			})
		}
		segments = append(segments, segment)
	}
	return segments, payload.Language, nil
}

var _ Engine = (*WhisperX)(nil)
