// Package logging configures the process-wide slog logger: JSON records from
// zap on stderr, gated by a level and enriched with the active trace.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// every logr V-level passes zap; slog levels are gated by Handler
const zapVerbosity = zapcore.Level(-8)

// ParseLevel maps a level name to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewZap builds the JSON logger. Records go to stderr so that commands
// printing tables or JSON keep stdout clean.
func NewZap(outputPaths ...string) (*zap.Logger, error) {
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapVerbosity)
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = outputPaths
	return cfg.Build()
}

// Handler gates records by level and adds trace_id and span_id of the span
// in the record's context
type Handler struct {
	next  slog.Handler
	level slog.Leveler
}

// NewHandler wraps next
func NewHandler(next slog.Handler, level slog.Leveler) *Handler {
	return &Handler{next: next, level: level}
}

// FromZap is NewHandler over a zap logger bridged through logr
func FromZap(z *zap.Logger, level slog.Leveler) *Handler {
	return NewHandler(logr.ToSlogHandler(zapr.NewLogger(z)), level)
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	// logr has no warn level
	if r.Level > slog.LevelInfo && r.Level < slog.LevelError {
		r.AddAttrs(slog.String("severity", r.Level.String()))
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), level: h.level}
}
