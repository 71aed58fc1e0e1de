package sse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler is a slog.Handler that forwards every record to the broker as
// an SSE "log" event, so dashboard clients receive pipeline output
// incrementally instead of re-parsing process output.
type LogHandler struct {
	broker *Broker
	level  slog.Leveler
	attrs  []slog.Attr
}

// NewLogHandler creates a handler publishing records at or above level.
func NewLogHandler(broker *Broker, level slog.Leveler) *LogHandler {
	return &LogHandler{broker: broker, level: level}
}

// Enabled implements slog.Handler.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	appendAttr := func(a slog.Attr) {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})
	h.broker.PublishLog(r.Level.String(), b.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &LogHandler{broker: h.broker, level: h.level, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened; the dashboard
// log view is a plain line stream.
func (h *LogHandler) WithGroup(string) slog.Handler { return h }
