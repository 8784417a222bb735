// Package jobs implements the transcription job pipeline: claiming work
// items, choosing between the subtitle and audio-transcription paths,
// persisting the transcript, and deciding retry versus archive for each
// queue message.
package jobs
