package systems

import (
	"log/slog"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
)

// DefaultSourceURL is the registry published by MobilityData
const DefaultSourceURL = "https://raw.githubusercontent.com/MobilityData/gbfs/master/systems.csv"

// Option configures a Loader
type Option func(*options)

type options struct {
	httpClient httpclient.Client
	sourceURL  string
	sourceFile string
	logger     logr.Logger
	tracer     trace.Tracer
}

func newOptions(opts []Option) *options {
	o := &options{
		sourceURL: DefaultSourceURL,
		logger:    logr.FromSlogHandler(slog.Default().Handler()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = httpclient.NewDefaultClient(0)
	}
	return o
}

// WithHTTPClient sets the transport used to download the registry
func WithHTTPClient(client httpclient.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithSourceURL downloads the registry from url instead of DefaultSourceURL
func WithSourceURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.sourceURL = url
		}
	}
}

// WithSourceFile reads the registry from a local CSV file. It takes precedence over the source URL.
func WithSourceFile(path string) Option {
	return func(o *options) {
		o.sourceFile = path
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracerProvider enables a span around Load
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = otel.NewTracer(tp)
	}
}
