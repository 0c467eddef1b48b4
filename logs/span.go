package logs

import (
	"context"
	"crypto/rand"
)

// Span names a unit of work, such as one chain run.
type Span string

type spanKey struct{}

var SpanKey spanKey

func SpanOf(ctx context.Context) (Span, bool) {
	span, ok := ctx.Value(SpanKey).(Span)
	return span, ok && span != ""
}

type NewSpan func(ctx context.Context, name string) (context.Context, Span)

func (Module) NewSpan(
	logger Logger,
) NewSpan {
	return func(ctx context.Context, name string) (context.Context, Span) {
		parent, hasParent := SpanOf(ctx)
		id := rand.Text()[:8]
		if name != "" {
			id = name + "." + id
		}
		span := Span(id)
		ctx = context.WithValue(ctx, SpanKey, span)
		if hasParent {
			logger.InfoContext(ctx, "span started", "parent", parent)
		} else {
			logger.InfoContext(ctx, "span started")
		}
		return ctx, span
	}
}
