// Package media wraps the external yt-dlp tool for metadata inspection and
// audio extraction, and provides the shared rate limiter that spaces calls to
// the upstream platform.
package media
