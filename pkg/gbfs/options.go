package gbfs

import (
	"log/slog"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
)

// Option configures a Discoverer and the Resolver it produces
type Option func(*options)

type options struct {
	httpClient        httpclient.Client
	preferredLanguage string
	logger            logr.Logger
	cacheTTL          time.Duration
	tracer            trace.Tracer
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: logr.FromSlogHandler(slog.Default().Handler()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = httpclient.NewDefaultClient(0)
	}
	return o
}

// WithHTTPClient sets the transport used for the discovery document and every feed
func WithHTTPClient(client httpclient.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithPreferredLanguage sets the initial preferred language. It is not checked
// until a feed is resolved.
func WithPreferredLanguage(lang string) Option {
	return func(o *options) {
		o.preferredLanguage = lang
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFeedCache keeps fetched payloads in memory. Entries live for the
// payload's own ttl, or for defaultTTL when the payload declares none.
func WithFeedCache(defaultTTL time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = defaultTTL
	}
}

// WithTracerProvider enables spans for discovery and feed fetches
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = otel.NewTracer(tp)
	}
}
