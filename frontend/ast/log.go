package ast

import (
	"context"
	"log/slog"
)

// Slog wraps a Node as a slog.LogValuer so that it is only rendered
// if the record is actually logged
func Slog(n Node) slog.LogValuer {
	return nodeLogValuer{n}
}

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	return slog.StringValue(String(l.Node))
}

// asLogValue replaces v with a lazy rendering if it holds a Node
func asLogValue(v slog.Value) slog.Value {
	if v.Kind() != slog.KindAny {
		return v
	}
	if asNode, isNode := v.Any().(Node); isNode {
		return slog.AnyValue(Slog(asNode))
	}
	return v
}

// ExprHandler wraps underlying so that any attribute holding a Node is
// printed as source rather than as a Go struct
func ExprHandler(underlying slog.Handler) slog.Handler {
	return &exprLogHandler{underlying: underlying}
}

func ExprLogger(underlying *slog.Logger) *slog.Logger {
	return slog.New(ExprHandler(underlying.Handler()))
}

type exprLogHandler struct {
	underlying slog.Handler
}

func (l *exprLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *exprLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		attr.Value = asLogValue(attr.Value)
		newRecord.AddAttrs(attr)
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *exprLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		attr.Value = asLogValue(attr.Value)
		wrapped[i] = attr
	}
	return ExprHandler(l.underlying.WithAttrs(wrapped))
}

func (l *exprLogHandler) WithGroup(name string) slog.Handler {
	return ExprHandler(l.underlying.WithGroup(name))
}
