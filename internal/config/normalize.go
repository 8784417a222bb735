package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeQueue()
	c.normalizeTranscription()
	c.normalizeSubtitles()
	c.normalizeMedia()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeQueue() {
	if strings.TrimSpace(c.Queue.Name) == "" {
		c.Queue.Name = defaultQueueName
	}
	if c.Queue.VisibilityTimeout <= 0 {
		c.Queue.VisibilityTimeout = defaultVisibilityTimeout
	}
	if c.Queue.MaxRetries <= 0 {
		c.Queue.MaxRetries = defaultMaxRetries
	}
	if c.Queue.BatchSize <= 0 {
		c.Queue.BatchSize = defaultBatchSize
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultProvider
	}
	if strings.TrimSpace(c.Transcription.Model) == "" {
		c.Transcription.Model = defaultModel
	}
	if c.Transcription.MaxConcurrent <= 0 {
		c.Transcription.MaxConcurrent = defaultMaxConcurrent
	}
	if strings.TrimSpace(c.Transcription.OpenAIBaseURL) == "" {
		c.Transcription.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	c.Transcription.OpenAIBaseURL = strings.TrimRight(c.Transcription.OpenAIBaseURL, "/")
}

func (c *Config) normalizeSubtitles() {
	if c.Subtitles.FetchAttempts <= 0 {
		c.Subtitles.FetchAttempts = defaultFetchAttempts
	}
	if c.Subtitles.FetchRetryDelay <= 0 {
		c.Subtitles.FetchRetryDelay = defaultFetchRetryDelay
	}
	if c.Subtitles.FetchTimeoutSecs <= 0 {
		c.Subtitles.FetchTimeoutSecs = defaultFetchTimeout
	}
}

func (c *Config) normalizeMedia() {
	if strings.TrimSpace(c.Media.YtDlpBinary) == "" {
		c.Media.YtDlpBinary = defaultYtDlpBinary
	}
	if c.Media.ExtractTimeout <= 0 {
		c.Media.ExtractTimeout = defaultExtractTimeout
	}
	if strings.TrimSpace(c.Media.AudioFormat) == "" {
		c.Media.AudioFormat = defaultAudioFormat
	}
	if strings.TrimSpace(c.Media.AudioQuality) == "" {
		c.Media.AudioQuality = defaultAudioQuality
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.StaleProcessingTimeout < 0 {
		c.Workflow.StaleProcessingTimeout = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
