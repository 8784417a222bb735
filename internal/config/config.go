package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Queue contains configuration for the embedded job queue.
type Queue struct {
	Name              string `toml:"name"`
	VisibilityTimeout int    `toml:"visibility_timeout"`
	MaxRetries        int    `toml:"max_retries"`
	BatchSize         int    `toml:"batch_size"`
}

// Transcription contains configuration for the speech-to-text engines.
type Transcription struct {
	// Provider selects the engine: "local" (WhisperX) or "openai".
	Provider string `toml:"provider"`
	// Model is the model size or name (e.g. "medium", "large-v3", "whisper-1").
	Model string `toml:"model"`
	// MaxConcurrent bounds simultaneous transcriptions process-wide.
	MaxConcurrent int    `toml:"max_concurrent"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
}

// Subtitles contains configuration for the subtitle extraction path.
type Subtitles struct {
	Enabled           bool `toml:"enabled"`
	FetchAttempts     int  `toml:"fetch_attempts"`
	FetchRetryDelay   int  `toml:"fetch_retry_delay"`
	FetchTimeoutSecs  int  `toml:"fetch_timeout"`
	PreferWordTimings bool `toml:"prefer_word_timings"`
}

// Media contains configuration for the external media tool.
type Media struct {
	YtDlpBinary    string `toml:"ytdlp_binary"`
	CookiesFile    string `toml:"cookies_file"`
	ExtractTimeout int    `toml:"extract_timeout"`
	AudioFormat    string `toml:"audio_format"`
	AudioQuality   string `toml:"audio_quality"`
}

// RateLimit contains configuration for the upstream platform rate limiter.
type RateLimit struct {
	// MinInterval is the minimum spacing between upstream calls, in seconds.
	MinInterval int `toml:"min_interval"`
	// MinSleep and MaxSleep bound the randomized delay applied when calls
	// arrive faster than MinInterval.
	MinSleep int `toml:"min_sleep"`
	MaxSleep int `toml:"max_sleep"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	// StaleProcessingTimeout reclaims documents stuck in processing after a
	// crash, in seconds. Zero disables the reclaimer.
	StaleProcessingTimeout int `toml:"stale_processing_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: directories, API bind address and token
//   - Queue: embedded queue name, visibility timeout, retry budget
//   - Transcription: engine selection, model, concurrency ceiling
//   - Subtitles: subtitle-path retries and preferences
//   - Media: yt-dlp binary and audio extraction settings
//   - RateLimit: upstream platform request spacing
//   - Workflow: drain loop intervals and stale-item recovery
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Queue         Queue         `toml:"queue"`
	Transcription Transcription `toml:"transcription"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Media         Media         `toml:"media"`
	RateLimit     RateLimit     `toml:"rate_limit"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. Secrets may be supplied
// through the environment (optionally via a local .env file) and take
// precedence over file values.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// applyEnv overlays secrets from the environment. A .env file next to the
// working directory is honored when present; missing files are not an error.
func (c *Config) applyEnv() {
	_ = godotenv.Load()
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		c.Transcription.OpenAIAPIKey = key
	}
	if token := strings.TrimSpace(os.Getenv("SCRIBE_API_TOKEN")); token != "" {
		c.Paths.APIToken = token
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.AudioCacheDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AudioCacheDir returns the directory extracted audio artifacts are written to.
func (c *Config) AudioCacheDir() string {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "audio")
}

// ExpandPath expands a leading tilde and resolves the absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
