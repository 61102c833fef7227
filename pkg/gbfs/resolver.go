package gbfs

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
)

// Discoverer holds the configuration of a system whose discovery document has not been read yet
type Discoverer struct {
	discoveryURL string
	opts         *options

	mu                sync.Mutex
	preferredLanguage string
}

// NewDiscoverer creates a Discoverer for the auto-discovery document at discoveryURL
func NewDiscoverer(discoveryURL string, opts ...Option) *Discoverer {
	o := newOptions(opts)
	return &Discoverer{
		discoveryURL:      discoveryURL,
		opts:              o,
		preferredLanguage: o.preferredLanguage,
	}
}

// SetPreferredLanguage sets the preferred language handed to resolvers created by Discover
func (d *Discoverer) SetPreferredLanguage(lang string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preferredLanguage = lang
}

// Discover fetches and parses the discovery document. It may be called again after a failure.
func (d *Discoverer) Discover(ctx context.Context) (*Resolver, error) {
	ctx, span := otel.StartSpan(ctx, d.opts.tracer, "gbfs.Discover",
		trace.WithAttributes(otel.AttrURL.String(d.discoveryURL)),
	)
	defer span.End()

	logger := d.opts.logger.WithValues("discovery_url", d.discoveryURL)

	body, err := d.opts.httpClient.Get(ctx, d.discoveryURL)
	if err != nil {
		ierr := &InitializationError{URL: d.discoveryURL, Err: err}
		otel.RecordError(span, ierr)
		return nil, ierr
	}

	doc, err := ParseDocument(body)
	if err != nil {
		ierr := &InitializationError{URL: d.discoveryURL, Err: err}
		otel.RecordError(span, ierr)
		return nil, ierr
	}

	d.mu.Lock()
	lang := d.preferredLanguage
	d.mu.Unlock()

	logger.V(1).Info("Discovered GBFS feeds",
		"languages", doc.LanguageCodes(),
		"version", doc.Version,
	)
	span.SetAttributes(otel.AttrResultCount.Int(len(doc.Languages)))

	return &Resolver{
		discoveryURL:      d.discoveryURL,
		document:          doc,
		httpClient:        d.opts.httpClient,
		logger:            logger,
		tracer:            d.opts.tracer,
		cache:             newFeedCache(d.opts.cacheTTL),
		preferredLanguage: lang,
	}, nil
}

// Create discovers the system at discoveryURL and returns its Resolver
func Create(ctx context.Context, discoveryURL string, opts ...Option) (*Resolver, error) {
	return NewDiscoverer(discoveryURL, opts...).Discover(ctx)
}

// Resolver resolves and fetches the feeds of one discovered system
type Resolver struct {
	discoveryURL string
	document     *Document
	httpClient   httpclient.Client
	logger       logr.Logger
	tracer       trace.Tracer
	cache        *feedCache

	mu                sync.RWMutex
	preferredLanguage string
}

// SetPreferredLanguage changes the preferred language. An empty string falls
// back to the first language of the discovery document. The language is
// checked when a feed is resolved, not here.
func (r *Resolver) SetPreferredLanguage(lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preferredLanguage = lang
}

// PreferredLanguage returns the preferred language, or "" when none is set
func (r *Resolver) PreferredLanguage() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferredLanguage
}

// SupportedLanguages returns the discovery document's languages in document order
func (r *Resolver) SupportedLanguages() []string {
	return r.document.LanguageCodes()
}

// IsLanguageSupported reports whether the discovery document lists lang
func (r *Resolver) IsLanguageSupported(lang string) bool {
	return slices.Contains(r.document.LanguageCodes(), lang)
}

// DiscoveryURL returns the auto-discovery URL the resolver was created from
func (r *Resolver) DiscoveryURL() string {
	return r.discoveryURL
}

// Document returns the parsed discovery document. Callers must not modify it.
func (r *Resolver) Document() *Document {
	return r.document
}

// Feeds returns the feed list of the effective language
func (r *Resolver) Feeds() ([]Feed, error) {
	lang := r.PreferredLanguage()
	if lang == "" {
		return slices.Clone(r.document.Languages[0].Feeds), nil
	}
	feeds, ok := r.document.FeedsFor(lang)
	if !ok {
		return nil, &UnsupportedLanguageError{
			Requested: lang,
			Available: r.SupportedLanguages(),
		}
	}
	return feeds, nil
}

// ResolveFeedURL returns the URL of feed name in the effective language.
// A feed the document does not advertise yields ok == false and no error.
func (r *Resolver) ResolveFeedURL(name string) (url string, ok bool, err error) {
	feeds, err := r.Feeds()
	if err != nil {
		return "", false, err
	}
	for _, f := range feeds {
		if f.Name == name {
			return f.URL, true, nil
		}
	}
	return "", false, nil
}

// FetchFeed fetches any advertised feed and decodes it into v
func (r *Resolver) FetchFeed(ctx context.Context, name string, v any) error {
	return r.fetchInto(ctx, name, feedSchema, v)
}

func (r *Resolver) fetchInto(ctx context.Context, name string, schema schemaFunc, v any) error {
	body, err := r.fetch(ctx, name, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &InvalidResponseError{Feed: name, Reason: "failed to decode payload", Err: err}
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context, name string, schema schemaFunc) ([]byte, error) {
	ctx, span := otel.StartSpan(ctx, r.tracer, "gbfs.FetchFeed",
		trace.WithAttributes(
			otel.AttrFeedName.String(name),
			otel.AttrLanguage.String(r.PreferredLanguage()),
		),
	)
	defer span.End()

	url, ok, err := r.ResolveFeedURL(name)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if !ok {
		ferr := &FetchError{Feed: name, Err: ErrFeedNotAdvertised}
		otel.RecordError(span, ferr)
		return nil, ferr
	}
	span.SetAttributes(otel.AttrURL.String(url))

	if body, hit := r.cache.get(url); hit {
		span.SetAttributes(otel.AttrCacheHit.Bool(true))
		r.logger.V(1).Info("Serving feed from cache", "feed", name)
		return body, nil
	}

	body, err := r.httpClient.Get(ctx, url)
	if err != nil {
		ferr := &FetchError{Feed: name, URL: url, Err: err}
		otel.RecordError(span, ferr)
		return nil, ferr
	}
	if err := validateShape(schema, body); err != nil {
		ierr := &InvalidResponseError{Feed: name, Reason: "payload is not a GBFS document", Err: err}
		otel.RecordError(span, ierr)
		return nil, ierr
	}

	r.cache.set(url, body, payloadTTL(body))
	r.logger.V(1).Info("Fetched feed", "feed", name, "bytes", len(body))
	return body, nil
}
