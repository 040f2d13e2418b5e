package logging

import (
	"context"
	"log/slog"
)

// componentKey is the attribute key that selects a component's level.
const componentKey = "component"

// filteringHandler applies per-component levels from a Spec before
// delegating to the real handler. The component is picked up from the
// "component" attribute as loggers derive children with With.
type filteringHandler struct {
	inner     slog.Handler
	spec      *Spec
	component string
}

// NewFilteringHandler wraps inner with component-level filtering.
func NewFilteringHandler(inner slog.Handler, spec *Spec) slog.Handler {
	return &filteringHandler{
		inner: inner,
		spec:  spec,
	}
}

// Enabled checks the record level against the spec level for this
// handler's component.
func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.spec.LevelFor(h.component).ToSlog()
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a copy bound to the new attributes. A "component"
// attribute switches which spec level applies from here down.
func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := &filteringHandler{
		inner:     h.inner.WithAttrs(attrs),
		spec:      h.spec,
		component: h.component,
	}
	for _, attr := range attrs {
		if attr.Key == componentKey {
			child.component = attr.Value.String()
			break
		}
	}
	return child
}

// WithGroup groups subsequent attributes; the component carries over.
func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		inner:     h.inner.WithGroup(name),
		spec:      h.spec,
		component: h.component,
	}
}
