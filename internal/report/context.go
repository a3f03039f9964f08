package report

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying r. A shared client picks the
// per-test reporter from the request context.
func NewContext(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the reporter stored in ctx, or fallback.
func FromContext(ctx context.Context, fallback Reporter) Reporter {
	if ctx != nil {
		if r, ok := ctx.Value(ctxKey{}).(Reporter); ok && r != nil {
			return r
		}
	}
	if fallback == nil {
		return Nop
	}
	return fallback
}
