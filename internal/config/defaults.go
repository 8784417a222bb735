package config

const (
	defaultDataDir            = "~/.local/share/scribe"
	defaultCacheDir           = "~/.local/share/scribe/cache"
	defaultLogDir             = "~/.local/share/scribe/logs"
	defaultAPIBind            = "127.0.0.1:7587"
	defaultQueueName          = "transcription_jobs"
	defaultVisibilityTimeout  = 300
	defaultMaxRetries         = 5
	defaultBatchSize          = 5
	defaultProvider           = "local"
	defaultModel              = "medium"
	defaultMaxConcurrent      = 2
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultFetchAttempts      = 3
	defaultFetchRetryDelay    = 2
	defaultFetchTimeout       = 30
	defaultYtDlpBinary        = "yt-dlp"
	defaultExtractTimeout     = 600
	defaultAudioFormat        = "mp3"
	defaultAudioQuality       = "192"
	defaultRateMinInterval    = 5
	defaultRateMinSleep       = 5
	defaultRateMaxSleep       = 12
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultStaleTimeout       = 1800
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Queue: Queue{
			Name:              defaultQueueName,
			VisibilityTimeout: defaultVisibilityTimeout,
			MaxRetries:        defaultMaxRetries,
			BatchSize:         defaultBatchSize,
		},
		Transcription: Transcription{
			Provider:      defaultProvider,
			Model:         defaultModel,
			MaxConcurrent: defaultMaxConcurrent,
			OpenAIBaseURL: defaultOpenAIBaseURL,
		},
		Subtitles: Subtitles{
			Enabled:           true,
			FetchAttempts:     defaultFetchAttempts,
			FetchRetryDelay:   defaultFetchRetryDelay,
			FetchTimeoutSecs:  defaultFetchTimeout,
			PreferWordTimings: true,
		},
		Media: Media{
			YtDlpBinary:    defaultYtDlpBinary,
			ExtractTimeout: defaultExtractTimeout,
			AudioFormat:    defaultAudioFormat,
			AudioQuality:   defaultAudioQuality,
		},
		RateLimit: RateLimit{
			MinInterval: defaultRateMinInterval,
			MinSleep:    defaultRateMinSleep,
			MaxSleep:    defaultRateMaxSleep,
		},
		Workflow: Workflow{
			QueuePollInterval:      defaultQueuePollInterval,
			ErrorRetryInterval:     defaultErrorRetryInterval,
			StaleProcessingTimeout: defaultStaleTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
