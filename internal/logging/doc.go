// Package logging builds the process-wide slog loggers and provides attr
// helpers plus standardized field keys so every component logs job context
// (document, message, queue, step) with consistent names.
package logging
