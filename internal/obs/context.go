package obs

import "context"

type patternCtxKey struct{}

// WithRoutePattern attaches the matched chi pattern to the context so the
// metrics and logging middleware can label by route instead of raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, patternCtxKey{}, pattern)
}

// RoutePatternFromContext returns the attached pattern, or "" when unset.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(patternCtxKey{}).(string)
	return pattern
}
