package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/gbfs-client/internal/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		wantConfig  *Config
		wantErr     string
	}{
		{
			name: "full_config",
			yamlContent: `registry:
  url: https://example.com/systems.csv
  filter:
    ids:
      include: ["bixi_*"]
      exclude: ["*_test"]
    versions:
      include: ["2.3"]
http:
  timeout: 10s
  maxRetries: 3
  retryInterval: 250ms
  userAgent: my-app/1.0
  headers:
    X-Api-Key: secret
feeds:
  language: fr
  cacheTTL: 60s`,
			wantConfig: &Config{
				Registry: RegistryConfig{
					URL: "https://example.com/systems.csv",
					Filter: &FilterConfig{
						IDs:      &PatternConfig{Include: []string{"bixi_*"}, Exclude: []string{"*_test"}},
						Versions: &PatternConfig{Include: []string{"2.3"}},
					},
				},
				HTTP: HTTPConfig{
					Timeout:       "10s",
					MaxRetries:    3,
					RetryInterval: "250ms",
					UserAgent:     "my-app/1.0",
					Headers:       map[string]string{"X-Api-Key": "secret"},
				},
				Feeds: FeedsConfig{Language: "fr", CacheTTL: "60s"},
			},
		},
		{
			name:        "empty_config_uses_defaults",
			yamlContent: `{}`,
			wantConfig:  &Config{},
		},
		{
			name: "registry_file",
			yamlContent: `registry:
  file: ./systems.csv`,
			wantConfig: &Config{Registry: RegistryConfig{File: "./systems.csv"}},
		},
		{
			name: "url_and_file",
			yamlContent: `registry:
  url: https://example.com/systems.csv
  file: ./systems.csv`,
			wantErr: "mutually exclusive",
		},
		{
			name: "invalid_url",
			yamlContent: `registry:
  url: not a url`,
			wantErr: "http_url",
		},
		{
			name: "too_many_retries",
			yamlContent: `http:
  maxRetries: 50`,
			wantErr: "lte",
		},
		{
			name: "invalid_language",
			yamlContent: `feeds:
  language: "not a language"`,
			wantErr: "bcp47_language_tag",
		},
		{
			name: "invalid_duration",
			yamlContent: `http:
  timeout: soon`,
			wantErr: "http.timeout",
		},
		{
			name: "negative_duration",
			yamlContent: `feeds:
  cacheTTL: -5s`,
			wantErr: "must not be negative",
		},
		{
			name: "empty_pattern",
			yamlContent: `registry:
  filter:
    ids:
      include: [""]`,
			wantErr: "required",
		},
		{
			name: "telemetry",
			yamlContent: `telemetry:
  enabled: true
  endpoint: otel-collector:4318
  insecure: true
  tracing:
    enabled: true
    sampling: 0.5
  metrics:
    enabled: true
    interval: 10s`,
			wantConfig: &Config{Telemetry: &telemetry.Config{
				Enabled:  true,
				Endpoint: "otel-collector:4318",
				Insecure: true,
				Tracing:  &telemetry.TracingConfig{Enabled: true, Sampling: 0.5},
				Metrics:  &telemetry.MetricsConfig{Enabled: true, Interval: "10s"},
			}},
		},
		{
			name: "invalid_telemetry",
			yamlContent: `telemetry:
  enabled: true
  tracing:
    enabled: true
    sampling: 2`,
			wantErr: "telemetry: tracing: sampling",
		},
		{
			name:        "invalid_yaml",
			yamlContent: "registry: [",
			wantErr:     "failed to parse YAML config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadConfig(WithConfigPath(writeConfig(t, tt.yamlContent)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_PathErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = LoadConfig(WithConfigPath(""))
	require.Error(t, err)

	_, err = LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate symlinks")
}

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		HTTP:  HTTPConfig{Timeout: "10s", RetryInterval: "250ms"},
		Feeds: FeedsConfig{CacheTTL: "1m"},
		Registry: RegistryConfig{Filter: &FilterConfig{
			IDs:      &PatternConfig{Include: []string{"bixi_*"}, Exclude: []string{"*_test"}},
			Versions: &PatternConfig{Include: []string{"2.3"}, Exclude: []string{"1.0"}},
		}},
	}

	assert.Equal(t, 10*time.Second, cfg.HTTP.GetTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.GetRetryInterval())
	assert.Equal(t, time.Minute, cfg.Feeds.GetCacheTTL())
	assert.Equal(t, []string{"bixi_*"}, cfg.Registry.GetIncludeIDs())
	assert.Equal(t, []string{"*_test"}, cfg.Registry.GetExcludeIDs())
	assert.Equal(t, []string{"2.3"}, cfg.Registry.GetIncludeVersions())
	assert.Equal(t, []string{"1.0"}, cfg.Registry.GetExcludeVersions())

	empty := &Config{}
	assert.Zero(t, empty.HTTP.GetTimeout())
	assert.Zero(t, empty.Feeds.GetCacheTTL())
	assert.Nil(t, empty.Registry.GetIncludeIDs())
	assert.Nil(t, empty.Registry.GetExcludeVersions())
}
