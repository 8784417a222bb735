package logging

import (
	"context"
	"log/slog"

	"scribe/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDocumentID is the standardized structured logging key for work-item identifiers.
	FieldDocumentID = "document_id"
	// FieldMsgID is the standardized structured logging key for queue message identifiers.
	FieldMsgID = "msg_id"
	// FieldQueue is the standardized structured logging key for queue names.
	FieldQueue = "queue"
	// FieldStep is the standardized structured logging key for pipeline step names.
	FieldStep = "step"
	// FieldStatus is the standardized structured logging key for job outcomes.
	FieldStatus = "status"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.DocumentIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDocumentID, id))
	}
	if id, ok := services.MsgIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldMsgID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
