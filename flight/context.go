package flight

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type contextKey int

const requestMetaKey contextKey = iota

// Metadata headers sent by DuckDB Airport clients.
const (
	// HeaderAuthorization is the gRPC metadata header for authorization token.
	HeaderAuthorization = "authorization"
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "airport-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "airport-client-session-id"
)

// RequestMeta holds the request headers handlers log and authenticate with.
type RequestMeta struct {
	Authorization string
	TraceID       string
	SessionID     string
}

// MetaFromContext returns the metadata stored by EnrichContext, or nil.
func MetaFromContext(ctx context.Context) *RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(*RequestMeta)
	return meta
}

// EnrichContext extracts request headers from the incoming gRPC metadata
// and stores them in the returned context. An enriched context is
// returned unchanged.
func EnrichContext(ctx context.Context) context.Context {
	if MetaFromContext(ctx) != nil {
		return ctx
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	first := func(key string) string {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
		return ""
	}
	return context.WithValue(ctx, requestMetaKey, &RequestMeta{
		Authorization: first(HeaderAuthorization),
		TraceID:       first(HeaderTraceID),
		SessionID:     first(HeaderSessionID),
	})
}

// requestAttrs returns slog key/value pairs identifying the request.
func requestAttrs(ctx context.Context) []any {
	meta := MetaFromContext(ctx)
	if meta == nil {
		return nil
	}
	var attrs []any
	if meta.TraceID != "" {
		attrs = append(attrs, "trace_id", meta.TraceID)
	}
	if meta.SessionID != "" {
		attrs = append(attrs, "session_id", meta.SessionID)
	}
	return attrs
}
