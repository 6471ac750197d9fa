package shared

import "context"

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying the request's correlation id
// so ledger writes can stamp it on the movements they emit
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns "" when none was set
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
