package common

import "context"

// ContextKey represents a context key type
type ContextKey string

// ContextKeyRequestID carries the transport request id so command and
// query logs can be correlated with the HTTP access log.
const ContextKeyRequestID ContextKey = "request_id"

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts request ID from context, empty if absent.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(ContextKeyRequestID).(string)
	return requestID
}
