package services

import "context"

type contextKey int

const (
	documentIDKey contextKey = iota
	msgIDKey
	requestIDKey
)

// WithDocumentID attaches a work-item identifier to the context for logging.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, documentIDKey, id)
}

// DocumentIDFromContext extracts the work-item identifier, if present.
func DocumentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(documentIDKey).(string)
	return id, ok && id != ""
}

// WithMsgID attaches a queue message identifier to the context for logging.
func WithMsgID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, msgIDKey, id)
}

// MsgIDFromContext extracts the queue message identifier, if present.
func MsgIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(msgIDKey).(int64)
	return id, ok
}

// WithRequestID attaches an HTTP request correlation identifier to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request correlation identifier, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
