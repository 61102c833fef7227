package app

import (
	"context"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugLevel lets logr V(4) records through, which is where slog debug
// records land once routed through zapr.
const debugLevel = zapcore.Level(-4)

// ConfigureLogging installs a zap-backed slog default logger writing to stderr.
// Development mode uses the console encoder and enables every verbosity level.
func ConfigureLogging(level zapcore.Level, development bool) error {
	var zcfg zap.Config
	if development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(debugLevel)
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		zcfg.Sampling = nil
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := zcfg.Build()
	if err != nil {
		return err
	}

	handler := &traceHandler{Handler: logr.ToSlogHandler(zapr.NewLogger(zl))}
	slog.SetDefault(slog.New(handler))
	return nil
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
