package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/services"
	"scribe/internal/store"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI transcribes audio through the hosted transcription endpoint using
// the verbose JSON response format, which carries per-segment timings.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI constructs a hosted engine from configuration.
func NewOpenAI(cfg *config.Config) *OpenAI {
	baseURL := strings.TrimRight(cfg.Transcription.OpenAIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Transcription.Model
	if model == "" || model == "medium" {
		model = "whisper-1"
	}
	return &OpenAI{
		apiKey:  cfg.Transcription.OpenAIAPIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

type openAIVerboseResponse struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		ID      int     `json:"id"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
		AvgLogP float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and decodes the verbose response.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	if o.apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "openai", "api key is not configured", nil)
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "openai", "open audio file", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "build upload", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "copy audio", err)
	}
	fields := map[string]string{
		"model":           o.model,
		"response_format": "verbose_json",
	}
	if language != "" {
		fields["language"] = language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "build upload", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "finalize upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "openai", "call transcription api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(
			services.ErrExternalTool,
			"transcribe",
			"openai",
			fmt.Sprintf("transcription api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
			nil,
		)
	}

	var payload openAIVerboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "openai", "decode response", err)
	}

	var segments []store.Segment
	var logprobSum float64
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, store.Segment{
			ID:    len(segments) + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
		logprobSum += seg.AvgLogP
	}

	result := &Result{
		Segments: segments,
		Language: payload.Language,
		Model:    o.model,
		Provider: "openai",
	}
	if language != "" {
		result.Language = language
	}
	if len(segments) > 0 {
		avg := logprobSum / float64(len(segments))
		result.ConfidenceScore = &avg
	}
	return result, nil
}

var _ Engine = (*OpenAI)(nil)
