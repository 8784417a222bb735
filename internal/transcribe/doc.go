// Package transcribe provides the speech-to-text engines (local WhisperX via
// uvx, hosted OpenAI) and the counting gate that bounds how many
// transcriptions run at once process-wide.
package transcribe
