// Package services provides shared plumbing for external collaborators:
// sentinel error markers with step-context wrapping, detail truncation, and
// context keys used to thread job identifiers into structured logs.
package services
