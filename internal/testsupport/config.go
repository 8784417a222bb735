package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Intervals are tightened so drain loops and retries run fast under test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Queue.VisibilityTimeout = 1
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Subtitles.FetchRetryDelay = 1
	cfg.RateLimit.MinInterval = 0
	cfg.RateLimit.MinSleep = 0
	cfg.RateLimit.MaxSleep = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithMaxRetries overrides the queue retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.MaxRetries = n
	}
}

// WithProvider overrides the transcription provider on the test config.
func WithProvider(provider, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcription.Provider = provider
		cfg.Transcription.OpenAIAPIKey = apiKey
	}
}
