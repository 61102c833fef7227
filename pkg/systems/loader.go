package systems

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
)

// Loader holds the configuration of a registry that has not been loaded yet
type Loader struct {
	opts *options
}

// NewLoader creates a Loader
func NewLoader(opts ...Option) *Loader {
	return &Loader{opts: newOptions(opts)}
}

// Source returns the file or URL the loader reads
func (l *Loader) Source() string {
	if l.opts.sourceFile != "" {
		return l.opts.sourceFile
	}
	return l.opts.sourceURL
}

// Load reads and parses the registry. Either the whole registry loads or an error is returned.
func (l *Loader) Load(ctx context.Context) (*Registry, error) {
	source := l.Source()
	ctx, span := otel.StartSpan(ctx, l.opts.tracer, "systems.Load",
		trace.WithAttributes(otel.AttrRegistrySrc.String(source)),
	)
	defer span.End()

	body, err := l.read(ctx)
	if err != nil {
		ferr := &FetchError{Source: source, Err: err}
		otel.RecordError(span, ferr)
		return nil, ferr
	}

	operators, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	l.opts.logger.Info("Loaded systems registry",
		"source", source,
		"systems", len(operators))
	span.SetAttributes(otel.AttrResultCount.Int(len(operators)))

	return newRegistry(source, operators, l.opts.logger), nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if l.opts.sourceFile == "" {
		return l.opts.httpClient.Get(ctx, l.opts.sourceURL, httpclient.WithAccept("text/csv"))
	}

	f, err := os.Open(l.opts.sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(f, httpclient.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return body, nil
}

// Initialize loads the registry described by opts
func Initialize(ctx context.Context, opts ...Option) (*Registry, error) {
	return NewLoader(opts...).Load(ctx)
}
