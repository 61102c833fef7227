package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/gbfs-client/internal/config"
	"github.com/stacklok/gbfs-client/internal/otel"
	"github.com/stacklok/gbfs-client/internal/telemetry"
	"github.com/stacklok/gbfs-client/pkg/gbfs"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
	"github.com/stacklok/gbfs-client/pkg/systems"
	"github.com/stacklok/gbfs-client/pkg/versions"
)

const shutdownTimeout = 5 * time.Second

// runtime holds what one command run needs: the merged configuration,
// telemetry providers and the HTTP client shared by both components
type runtime struct {
	cfg        *config.Config
	format     string
	telemetry  *telemetry.Telemetry
	httpClient httpclient.Client
	tracer     trace.Tracer
}

// run builds the runtime, wraps fn in a command span and flushes telemetry afterwards
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := telemetry.ParentContext(cmd.Context(), os.LookupEnv)
	rt, err := c.newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	ctx, span := otel.StartSpan(ctx, rt.tracer, "gbfs "+cmd.Name())
	defer span.End()

	if err := fn(ctx, rt); err != nil {
		otel.RecordError(span, err)
		return err
	}
	return nil
}

func (c *cli) newRuntime(ctx context.Context) (*runtime, error) {
	cfg := &config.Config{}
	if path := c.configPath(); path != "" {
		loaded, err := config.LoadConfig(config.WithConfigPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		slog.Debug("Loaded configuration", "path", path)
	}
	c.applyOverrides(cfg)

	format := c.v.GetString(flagFormat)
	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("unsupported output format %q, use one of: %s, %s, %s",
			format, formatTable, formatJSON, formatYAML)
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	timeout := cfg.HTTP.GetTimeout()
	if d := c.v.GetDuration(flagTimeout); d > 0 {
		timeout = d
	}
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = versions.UserAgent()
	}

	clientOpts := []httpclient.Option{
		httpclient.WithMaxRetries(cfg.HTTP.MaxRetries),
		httpclient.WithRetryInterval(cfg.HTTP.GetRetryInterval()),
		httpclient.WithUserAgent(userAgent),
		httpclient.WithTracerProvider(tel.TracerProvider()),
		httpclient.WithMeterProvider(tel.MeterProvider()),
	}
	for key, value := range cfg.HTTP.Headers {
		clientOpts = append(clientOpts, httpclient.WithDefaultHeader(key, value))
	}

	return &runtime{
		cfg:        cfg,
		format:     format,
		telemetry:  tel,
		httpClient: httpclient.NewDefaultClient(timeout, clientOpts...),
		tracer:     otel.NewTracer(tel.TracerProvider()),
	}, nil
}

// configPath returns the --config file, or the default file when it exists.
// An empty path means no configuration file.
func (c *cli) configPath() string {
	if path := c.v.GetString(flagConfig); path != "" {
		return path
	}
	if c.findConfig == nil {
		return ""
	}
	path, err := c.findConfig(DefaultConfigFile)
	if err != nil {
		return ""
	}
	return path
}

// applyOverrides lets flags and GBFS_* variables win over the configuration file
func (c *cli) applyOverrides(cfg *config.Config) {
	if url := c.v.GetString(flagRegistryURL); url != "" {
		cfg.Registry.URL = url
		cfg.Registry.File = ""
	}
	if file := c.v.GetString(flagRegistryFile); file != "" {
		cfg.Registry.File = file
		cfg.Registry.URL = ""
	}
	if lang := c.v.GetString(flagLanguage); lang != "" {
		cfg.Feeds.Language = lang
	}
}

func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.telemetry.Shutdown(ctx); err != nil {
		slog.Warn("Failed to flush telemetry", "error", err)
	}
}

// loadRegistry loads the systems registry from the configured source
func (rt *runtime) loadRegistry(ctx context.Context) (*systems.Registry, error) {
	opts := []systems.Option{
		systems.WithHTTPClient(rt.httpClient),
		systems.WithTracerProvider(rt.telemetry.TracerProvider()),
	}
	if rt.cfg.Registry.File != "" {
		opts = append(opts, systems.WithSourceFile(rt.cfg.Registry.File))
	} else {
		opts = append(opts, systems.WithSourceURL(rt.cfg.Registry.URL))
	}
	return systems.Initialize(ctx, opts...)
}

// newResolver creates a feed resolver for the --url discovery document, or for
// the discovery URL the registry lists for --system
func (rt *runtime) newResolver(ctx context.Context, cmd *cobra.Command) (*gbfs.Resolver, error) {
	discoveryURL, err := cmd.Flags().GetString(flagURL)
	if err != nil {
		return nil, err
	}
	systemID, err := cmd.Flags().GetString(flagSystem)
	if err != nil {
		return nil, err
	}

	if systemID != "" {
		registry, err := rt.loadRegistry(ctx)
		if err != nil {
			return nil, err
		}
		operator, ok := registry.FindBySystemID(systemID)
		if !ok {
			return nil, fmt.Errorf("system %q not found in registry %s", systemID, registry.Source())
		}
		if operator.AutoDiscoveryURL == "" {
			return nil, fmt.Errorf("system %q has no auto-discovery URL", systemID)
		}
		discoveryURL = operator.AutoDiscoveryURL
		slog.Debug("Resolved system from registry", "system_id", operator.SystemID, "url", discoveryURL)
	}
	if discoveryURL == "" {
		return nil, errors.New("either --url or --system is required")
	}

	return gbfs.Create(ctx, discoveryURL,
		gbfs.WithHTTPClient(rt.httpClient),
		gbfs.WithPreferredLanguage(rt.cfg.Feeds.Language),
		gbfs.WithFeedCache(rt.cfg.Feeds.GetCacheTTL()),
		gbfs.WithTracerProvider(rt.telemetry.TracerProvider()),
	)
}

// addFeedSourceFlags adds the flags selecting the system whose feeds are read
func addFeedSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagURL, "", "Auto-discovery URL (gbfs.json) of the system")
	cmd.Flags().String(flagSystem, "", "System ID to look up in the registry")
	cmd.MarkFlagsMutuallyExclusive(flagURL, flagSystem)
	cmd.MarkFlagsOneRequired(flagURL, flagSystem)
}
