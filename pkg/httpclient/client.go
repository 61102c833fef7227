// Package httpclient provides the HTTP transport used to fetch GBFS documents
// and the operator registry.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/internal/telemetry"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "gbfs-client/1.0"

	// DefaultRetryInterval is the first wait between retries when retries are enabled
	DefaultRetryInterval = 500 * time.Millisecond
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error)
}

// RequestOption customizes a single request
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

// WithAccept overrides the Accept header, which defaults to application/json
func WithAccept(mediaType string) RequestOption {
	return func(c *requestConfig) {
		c.headers.Set("Accept", mediaType)
	}
}

// WithHeader sets an extra request header, e.g. an operator API key
func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) {
		c.headers.Set(key, value)
	}
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithMaxRetries enables up to n retries of retryable failures with exponential backoff.
// Zero, the default, disables retries.
func WithMaxRetries(n uint) Option {
	return func(c *DefaultClient) {
		c.maxRetries = n
	}
}

// WithRetryInterval sets the initial backoff interval between retries
func WithRetryInterval(d time.Duration) Option {
	return func(c *DefaultClient) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *DefaultClient) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithDefaultHeader sets a header sent with every request, e.g. an operator API key.
// Per-request options still override it.
func WithDefaultHeader(key, value string) Option {
	return func(c *DefaultClient) {
		c.headers.Set(key, value)
	}
}

// WithTransport sets the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// WithTracerProvider enables a client span per Get
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *DefaultClient) {
		c.tracer = otel.NewTracer(tp)
	}
}

// WithMeterProvider enables fetch count and duration metrics
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *DefaultClient) {
		c.meterProvider = mp
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client        *http.Client
	timeout       time.Duration
	userAgent     string
	headers       http.Header
	maxRetries    uint
	retryInterval time.Duration
	tracer        trace.Tracer
	meterProvider metric.MeterProvider
	metrics       *telemetry.FetchMetrics
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout:       timeout,
		userAgent:     UserAgent,
		headers:       http.Header{},
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Metrics are optional; an instrument error leaves them disabled.
	if metrics, err := telemetry.NewFetchMetrics(c.meterProvider); err == nil {
		c.metrics = metrics
	}

	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	cfg := &requestConfig{headers: c.headers.Clone()}
	cfg.headers.Set("User-Agent", c.userAgent)
	cfg.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := otel.StartSpan(ctx, c.tracer, "httpclient.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(otel.AttrURL.String(redactURL(url))),
	)
	defer span.End()

	start := time.Now()
	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		body, err := c.do(ctx, url, cfg.headers)
		if err != nil && !isRetryable(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	var (
		body []byte
		err  error
	)
	if c.maxRetries == 0 {
		attempts = 1
		body, err = c.do(ctx, url, cfg.headers)
	} else {
		body, err = backoff.Retry(ctx, operation,
			backoff.WithBackOff(c.newBackOff()),
			backoff.WithMaxTries(c.maxRetries+1),
		)
	}

	c.metrics.RecordFetch(ctx, hostOf(url), time.Since(start), err == nil)
	span.SetAttributes(otel.AttrRetryAttempts.Int(attempts))
	if status := StatusCode(err); status != 0 {
		span.SetAttributes(otel.AttrHTTPStatus.Int(status))
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResponseSize.Int(len(body)))
	return body, nil
}

func (c *DefaultClient) do(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &requestError{err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = headers.Clone()
	otelglobal.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, &requestError{err: fmt.Errorf(
			"response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))}
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, &requestError{err: fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))}
	}

	return body, nil
}

func (c *DefaultClient) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = c.timeout
	return b
}

// requestError marks failures that no retry can fix.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	return true
}

func hostOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// redactURL drops the query string, where some operators put API keys.
func redactURL(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
