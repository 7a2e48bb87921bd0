// Package logging defines the structured logger every component receives.
// Implementations wrap slog (default) or zap; both add the request id carried
// by the context to each entry.
package logging

import (
	"context"
	"slices"
)

// Logger is a context-aware, structured logger. Args are key-value pairs:
//
//	log.Info(ctx, "charged", "user_id", id, "cost", cost)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes args.
	With(args ...any) Logger
}

// RequestIDKey is the attribute name used for the request id.
const RequestIDKey = "request_id"

type requestIDCtxKey struct{}

// ContextWithRequestID returns ctx carrying id. Loggers add it to every entry
// logged with the returned context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

func withRequestID(ctx context.Context, args []any) []any {
	if id := RequestIDFromContext(ctx); id != "" {
		return append(slices.Clip(args), RequestIDKey, id)
	}
	return args
}
