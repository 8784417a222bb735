package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/services"
)

var commandContext = exec.CommandContext

// YtDlp wraps the yt-dlp command-line tool. All upstream calls pass through
// the shared limiter so metadata fetches and extractions share one budget.
type YtDlp struct {
	binary       string
	cookiesFile  string
	audioFormat  string
	audioQuality string
	cacheDir     string
	timeout      time.Duration
	limiter      *Limiter
}

// Option configures the yt-dlp client.
type Option func(*YtDlp)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(y *YtDlp) {
		if binary != "" {
			y.binary = binary
		}
	}
}

// WithLimiter installs a rate limiter applied before every upstream call.
func WithLimiter(limiter *Limiter) Option {
	return func(y *YtDlp) {
		y.limiter = limiter
	}
}

// NewYtDlp constructs a client from configuration.
func NewYtDlp(cfg *config.Config, opts ...Option) *YtDlp {
	y := &YtDlp{
		binary:       cfg.Media.YtDlpBinary,
		cookiesFile:  cfg.Media.CookiesFile,
		audioFormat:  cfg.Media.AudioFormat,
		audioQuality: cfg.Media.AudioQuality,
		cacheDir:     cfg.AudioCacheDir(),
		timeout:      time.Duration(cfg.Media.ExtractTimeout) * time.Second,
	}
	if y.binary == "" {
		y.binary = "yt-dlp"
	}
	if y.audioFormat == "" {
		y.audioFormat = "mp3"
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// FetchMetadata runs a metadata-only probe and decodes the JSON description,
// including the available manual and automatic caption tracks.
func (y *YtDlp) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "fetch_metadata", "url is required", nil)
	}
	if err := y.wait(ctx); err != nil {
		return nil, err
	}

	args := y.baseArgs()
	args = append(args, "--skip-download", "-J", url)

	ctx, cancel := y.withTimeout(ctx)
	defer cancel()

	cmd := commandContext(ctx, y.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "fetch_metadata", commandFailure(err), err)
	}

	var meta Metadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "fetch_metadata", "parse metadata output", err)
	}
	return &meta, nil
}

// ExtractAudio downloads the best audio stream and transcodes it into the
// configured format inside the audio cache directory. Output names carry a
// random prefix so concurrent extractions of the same item never collide.
func (y *YtDlp) ExtractAudio(ctx context.Context, url string) (*AudioArtifact, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "extract_audio", "url is required", nil)
	}
	if strings.TrimSpace(y.cacheDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "media", "extract_audio", "audio cache directory is not configured", nil)
	}
	if err := os.MkdirAll(y.cacheDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "media", "extract_audio", "create audio cache directory", err)
	}
	if err := y.wait(ctx); err != nil {
		return nil, err
	}

	prefix := uuid.NewString()
	template := filepath.Join(y.cacheDir, prefix+"-%(id)s.%(ext)s")

	args := y.baseArgs()
	args = append(args,
		"-f", "bestaudio",
		"-x",
		"--audio-format", y.audioFormat,
	)
	if y.audioQuality != "" {
		args = append(args, "--audio-quality", y.audioQuality)
	}
	args = append(args, "-o", template, url)

	ctx, cancel := y.withTimeout(ctx)
	defer cancel()

	cmd := commandContext(ctx, y.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = commandFailure(err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "media", "extract_audio", detail, err)
	}

	path, err := y.findArtifact(prefix)
	if err != nil {
		return nil, err
	}
	return &AudioArtifact{Path: path, Format: y.audioFormat}, nil
}

// findArtifact locates the produced file by its prefix. yt-dlp decides the
// final name from its output template, so the exact path is not known ahead
// of the run.
func (y *YtDlp) findArtifact(prefix string) (string, error) {
	entries, err := os.ReadDir(y.cacheDir)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "media", "extract_audio", "scan audio cache", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix+"-") {
			return filepath.Join(y.cacheDir, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "media", "extract_audio", "extraction produced no audio file", nil)
}

func (y *YtDlp) baseArgs() []string {
	args := []string{"--no-warnings", "--no-progress"}
	if y.cookiesFile != "" {
		args = append(args, "--cookies", y.cookiesFile)
	}
	return args
}

func (y *YtDlp) wait(ctx context.Context) error {
	if y.limiter == nil {
		return nil
	}
	return y.limiter.Wait(ctx)
}

func (y *YtDlp) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if y.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, y.timeout)
}

// commandFailure extracts stderr from an exec error when available.
func commandFailure(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if detail := strings.TrimSpace(string(exitErr.Stderr)); detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("yt-dlp failed: %v", err)
}

var _ Tool = (*YtDlp)(nil)
