package manager

import (
	"context"
	"log/slog"
)

// opIDContextKey keys the per-request operation id in a context.
type opIDContextKey struct{}

// ContextWithOpID returns a context carrying the given operation id.
// The server assigns one per API request so log lines from a single
// request can be correlated.
func ContextWithOpID(ctx context.Context, opID uint64) context.Context {
	return context.WithValue(ctx, opIDContextKey{}, opID)
}

// OpIDFromContext returns the operation id in ctx, or 0 if none.
func OpIDFromContext(ctx context.Context) uint64 {
	if opID, ok := ctx.Value(opIDContextKey{}).(uint64); ok {
		return opID
	}
	return 0
}

// opIDHandler wraps a slog.Handler to add op_id from the context to
// each record. Takes effect for the Context logging variants
// (InfoContext, WarnContext, ...).
type opIDHandler struct {
	slog.Handler
}

func (h opIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if opID := OpIDFromContext(ctx); opID != 0 {
		r.AddAttrs(slog.Uint64("op_id", opID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h opIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return opIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h opIDHandler) WithGroup(name string) slog.Handler {
	return opIDHandler{h.Handler.WithGroup(name)}
}

// WithOpIDHandler wraps a logger's handler to extract op_id from
// context.
func WithOpIDHandler(logger *slog.Logger) *slog.Logger {
	return slog.New(opIDHandler{logger.Handler()})
}
