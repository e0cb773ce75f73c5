// Package requestctx carries per-request values across transport layers.
package requestctx

import "context"

type requestIDKey struct{}

type localeKey struct{}

// WithRequestID stores a correlation id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithLocale stores the negotiated locale in ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// Locale returns the negotiated locale stored in ctx, or "".
func Locale(ctx context.Context) string {
	value, _ := ctx.Value(localeKey{}).(string)
	return value
}
