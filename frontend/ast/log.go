package ast

import (
	"context"
	"log/slog"
)

// Slog wraps a Node as a slog.LogValuer to not render it
// unless it definitely needs to be logged
func Slog(n Node) slog.LogValuer {
	return nodeLogValuer{n}
}

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	return slog.StringValue(describeOrNil(l.Node))
}

// NodeHandler wraps underlying so that Node attributes are rendered lazily
func NodeHandler(underlying slog.Handler) slog.Handler {
	return &nodeLogHandler{underlying: underlying}
}

func NodeLogger(underlying *slog.Logger) *slog.Logger {
	return slog.New(NodeHandler(underlying.Handler()))
}

type nodeLogHandler struct {
	underlying slog.Handler
}

func (l *nodeLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *nodeLogHandler) Handle(ctx context.Context, record slog.Record) error {
	wrapped := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		wrapped.AddAttrs(wrapNode(attr))
		return true
	})
	return l.underlying.Handle(ctx, wrapped)
}

func (l *nodeLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		wrapped[i] = wrapNode(attr)
	}
	return NodeHandler(l.underlying.WithAttrs(wrapped))
}

func (l *nodeLogHandler) WithGroup(name string) slog.Handler {
	return NodeHandler(l.underlying.WithGroup(name))
}

func wrapNode(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	if n, ok := attr.Value.Any().(Node); ok {
		return slog.Any(attr.Key, Slog(n))
	}
	return attr
}
