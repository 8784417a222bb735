package media

import "context"

// CaptionTrack describes one downloadable caption rendition for a language.
type CaptionTrack struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Metadata holds the subset of upstream metadata the pipeline consumes.
// Subtitles carries manually authored tracks; AutomaticCaptions carries
// machine-generated ones. Both map language codes to available renditions.
type Metadata struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	DurationSeconds   float64                   `json:"duration"`
	Language          string                    `json:"language"`
	Subtitles         map[string][]CaptionTrack `json:"subtitles"`
	AutomaticCaptions map[string][]CaptionTrack `json:"automatic_captions"`
}

// AudioArtifact describes an extracted audio file on local disk.
type AudioArtifact struct {
	Path            string
	Format          string
	DurationSeconds float64
}

// Tool defines the media operations the pipeline needs from yt-dlp.
type Tool interface {
	FetchMetadata(ctx context.Context, url string) (*Metadata, error)
	ExtractAudio(ctx context.Context, url string) (*AudioArtifact, error)
}
