package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

var enabledSections = []string{
	"inference",
	"driver",
	"loader",
	"cli",
}

var level = &slog.LevelVar{}

func init() {
	level.Set(slog.LevelError)
}

// SetLevel changes the minimum level of DefaultLogger and of every logger
// derived from it
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel accepts debug, info, warn and error
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

var LoggerOpts = &slog.HandlerOptions{
	AddSource: false,
	Level:     level,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = New(os.Stderr)

// New builds a logger writing to w that keeps records of the enabled sections
func New(w io.Writer) *slog.Logger {
	return slog.New(&filteringHandler{underlying: slog.NewTextHandler(w, LoggerOpts)})
}

var _ slog.Handler = &filteringHandler{}

type filteringHandler struct {
	underlying slog.Handler
	// sections holds the section attributes consumed by WithAttrs
	sections []string
}

func isEnabled(section string) bool {
	return slices.ContainsFunc(enabledSections, func(enabled string) bool {
		return strings.HasPrefix(section, enabled)
	})
}

func (f *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	wantSection := slices.ContainsFunc(f.sections, isEnabled)
	record.Attrs(func(attr slog.Attr) bool {
		wantSection = wantSection || attr.Key == "section" && isEnabled(attr.Value.String())
		// iterate as long as we have not found our section
		return !wantSection
	})
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var newAttrs []slog.Attr
	sections := slices.Clone(f.sections)

	for _, attr := range attrs {
		if attr.Key == "section" {
			sections = append(sections, attr.Value.String())
		}
		newAttrs = append(newAttrs, attr)
	}
	return &filteringHandler{
		underlying: f.underlying.WithAttrs(newAttrs),
		sections:   sections,
	}
}

func (f *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}
