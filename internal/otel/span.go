// Package otel provides OpenTelemetry span helpers shared by the transport,
// the feed resolver and the operator registry.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on GBFS client spans.
const (
	AttrURL           = attribute.Key("url.full")
	AttrHTTPStatus    = attribute.Key("http.response.status_code")
	AttrResponseSize  = attribute.Key("http.response.body.size")
	AttrFeedName      = attribute.Key("gbfs.feed.name")
	AttrLanguage      = attribute.Key("gbfs.language")
	AttrStationID     = attribute.Key("gbfs.station.id")
	AttrRegistrySrc   = attribute.Key("gbfs.registry.source")
	AttrResultCount   = attribute.Key("result.count")
	AttrCacheHit      = attribute.Key("gbfs.cache.hit")
	AttrRetryAttempts = attribute.Key("http.request.attempts")
)

// noopSpan is what trace.SpanFromContext returns for a context without a span
var noopSpan = trace.SpanFromContext(context.Background())

// TracerName is the instrumentation scope used by every package in this module.
const TracerName = "github.com/stacklok/gbfs-client"

// NewTracer returns a tracer from the provider, or nil when tracing is off.
func NewTracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		return nil
	}
	return provider.Tracer(TracerName)
}

// StartSpan starts a span on tracer. A nil tracer yields ctx unchanged and a
// non-recording span, so ending it never touches a span the caller owns.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noopSpan
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. Nil spans and nil errors are ignored.
// The status text stays generic; feed URLs may carry API keys.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
