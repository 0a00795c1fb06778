// Package correlation carries the request correlation id through contexts,
// outbound HTTP calls and published events.
package correlation

import "context"

const Header = "X-Correlation-Id"

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}
