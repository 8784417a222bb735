package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case "local":
	case "openai":
		if c.Transcription.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/scribe/config.toml"
			}
			return fmt.Errorf("transcription.openai_api_key is required when provider is \"openai\". Set OPENAI_API_KEY env var or edit %s", defaultPath)
		}
	default:
		return fmt.Errorf("transcription.provider must be \"local\" or \"openai\", got %q", c.Transcription.Provider)
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.MinSleep < 0 || c.RateLimit.MaxSleep < 0 || c.RateLimit.MinInterval < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	if c.RateLimit.MaxSleep < c.RateLimit.MinSleep {
		return errors.New("rate_limit.max_sleep must be >= rate_limit.min_sleep")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "text", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console, text, or json, got %q", c.Logging.Format)
	}
}
