package logging

import (
	"context"
	"log/slog"
)

// renamingHandler applies replaceAttr to handlers that take no HandlerOptions.
type renamingHandler struct {
	next slog.Handler
}

func (h renamingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h renamingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(replaceAttr(nil, a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h renamingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	renamed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		renamed[i] = replaceAttr(nil, a)
	}
	return renamingHandler{h.next.WithAttrs(renamed)}
}

func (h renamingHandler) WithGroup(name string) slog.Handler {
	return renamingHandler{h.next.WithGroup(name)}
}
