// Package config provides configuration file loading for the gbfs command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/gbfs-client/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables read by the gbfs command,
// e.g. GBFS_LOG_LEVEL or GBFS_REGISTRY_URL
const EnvPrefix = "GBFS"

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	HTTP     HTTPConfig     `yaml:"http"`
	Feeds    FeedsConfig    `yaml:"feeds"`

	// Telemetry exports the spans and fetch metrics of each run over OTLP
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// RegistryConfig defines where the systems registry is read from
type RegistryConfig struct {
	// URL of the systems.csv registry. Mutually exclusive with File.
	URL string `yaml:"url,omitempty" validate:"omitempty,http_url"`

	// File is a local systems.csv. Mutually exclusive with URL.
	File string `yaml:"file,omitempty"`

	// Filter narrows the registry before searches
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig defines registry filtering rules
type FilterConfig struct {
	IDs      *PatternConfig `yaml:"ids,omitempty"`
	Versions *PatternConfig `yaml:"versions,omitempty"`
}

// PatternConfig holds include and exclude lists
type PatternConfig struct {
	Include []string `yaml:"include,omitempty" validate:"dive,required"`
	Exclude []string `yaml:"exclude,omitempty" validate:"dive,required"`
}

// HTTPConfig defines the transport settings
type HTTPConfig struct {
	// Timeout per request, e.g. "15s"
	Timeout string `yaml:"timeout,omitempty"`

	// MaxRetries of retryable failures; 0 disables retries
	MaxRetries uint `yaml:"maxRetries,omitempty" validate:"lte=10"`

	// RetryInterval is the first backoff interval, e.g. "500ms"
	RetryInterval string `yaml:"retryInterval,omitempty"`

	UserAgent string `yaml:"userAgent,omitempty" validate:"omitempty,printascii"`

	// Headers are sent with every request, e.g. an operator API key
	Headers map[string]string `yaml:"headers,omitempty" validate:"dive,keys,required,printascii,endkeys"`
}

// FeedsConfig defines the feed resolver settings
type FeedsConfig struct {
	// Language is the preferred feed language
	Language string `yaml:"language,omitempty" validate:"omitempty,bcp47_language_tag"`

	// CacheTTL enables the payload cache, e.g. "60s"
	CacheTTL string `yaml:"cacheTTL,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetTimeout returns the request timeout, or 0 for the client default
func (h *HTTPConfig) GetTimeout() time.Duration {
	d, _ := parseDuration(h.Timeout)
	return d
}

// GetRetryInterval returns the first backoff interval, or 0 for the client default
func (h *HTTPConfig) GetRetryInterval() time.Duration {
	d, _ := parseDuration(h.RetryInterval)
	return d
}

// GetCacheTTL returns the payload cache TTL, or 0 when caching is off
func (f *FeedsConfig) GetCacheTTL() time.Duration {
	d, _ := parseDuration(f.CacheTTL)
	return d
}

// GetIncludeIDs returns the system ID include patterns
func (r *RegistryConfig) GetIncludeIDs() []string {
	if r.Filter == nil || r.Filter.IDs == nil {
		return nil
	}
	return r.Filter.IDs.Include
}

// GetExcludeIDs returns the system ID exclude patterns
func (r *RegistryConfig) GetExcludeIDs() []string {
	if r.Filter == nil || r.Filter.IDs == nil {
		return nil
	}
	return r.Filter.IDs.Exclude
}

// GetIncludeVersions returns the GBFS versions an operator must support one of
func (r *RegistryConfig) GetIncludeVersions() []string {
	if r.Filter == nil || r.Filter.Versions == nil {
		return nil
	}
	return r.Filter.Versions.Include
}

// GetExcludeVersions returns the GBFS versions that exclude an operator
func (r *RegistryConfig) GetExcludeVersions() []string {
	if r.Filter == nil || r.Filter.Versions == nil {
		return nil
	}
	return r.Filter.Versions.Exclude
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return formatValidationError(err)
	}

	if c.Registry.URL != "" && c.Registry.File != "" {
		return fmt.Errorf("registry: url and file are mutually exclusive")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	durations := map[string]string{
		"http.timeout":       c.HTTP.Timeout,
		"http.retryInterval": c.HTTP.RetryInterval,
		"feeds.cacheTTL":     c.Feeds.CacheTTL,
	}
	for field, value := range durations {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	return nil
}

// formatValidationError lists every failed field as "field: tag"
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}
