// Package slogsink adapts log/slog to the sink: it is the integration glue
// between the logging front-end and the delivery pipeline.
package slogsink

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/CodingOX/plumelog-go/pkg/model"
)

// Enqueuer is the one capability the handler needs from the sink.
// *sink.Sink implements it.
type Enqueuer interface {
	Enqueue(rec *model.LogRecord) bool
}

// Options customizes the handler.
type Options struct {
	// Level is the minimum level to ship. Defaults to slog.LevelInfo.
	Level slog.Leveler

	// AddSource resolves the caller's file, line and function into the
	// record's source location fields.
	AddSource bool
}

// Handler implements slog.Handler by converting each slog.Record into a
// model.LogRecord and handing it to the sink. Handle never blocks on I/O
// and never returns an error into the logging call path.
type Handler struct {
	sink   Enqueuer
	opts   Options
	attrs  map[string]any
	groups []string
}

// New builds a Handler shipping to sink. opts may be nil.
func New(sink Enqueuer, opts *Options) *Handler {
	h := &Handler{sink: sink}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	rec := &model.LogRecord{
		Time:    r.Time,
		Level:   severityOf(r.Level),
		Message: r.Message,
	}

	ctxMap := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for k, v := range h.attrs {
		ctxMap[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		putAttr(ctxMap, h.groups, a)
		return true
	})
	if len(ctxMap) > 0 {
		rec.Context = ctxMap
	}

	if h.opts.AddSource && r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		rec.File = f.File
		rec.Line = f.Line
		rec.Function = f.Function
	}

	h.sink.Enqueue(rec)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		putAttr(h2.attrs, h2.groups, a)
	}
	return h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *Handler) clone() *Handler {
	h2 := &Handler{
		sink:   h.sink,
		opts:   h.opts,
		attrs:  make(map[string]any, len(h.attrs)+4),
		groups: append([]string(nil), h.groups...),
	}
	for k, v := range h.attrs {
		h2.attrs[k] = v
	}
	return h2
}

// putAttr flattens an attr into the context map, prefixing keys with the
// active group path joined by dots.
func putAttr(dst map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := a.Value.Group()
		if len(sub) == 0 {
			return
		}
		next := groups
		if a.Key != "" {
			next = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range sub {
			putAttr(dst, next, ga)
		}
		return
	}

	if a.Key == "" {
		return
	}
	key := a.Key
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	dst[key] = a.Value.Any()
}

func severityOf(l slog.Level) model.Severity {
	switch {
	case l < slog.LevelDebug:
		return model.TRACE
	case l < slog.LevelInfo:
		return model.DEBUG
	case l < slog.LevelWarn:
		return model.INFO
	case l < slog.LevelError:
		return model.WARN
	case l < slog.LevelError+4:
		return model.ERROR
	default:
		return model.CRITICAL
	}
}
