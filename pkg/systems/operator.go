package systems

import (
	"slices"

	"github.com/stacklok/gbfs-client/internal/versions"
)

// Operator is one row of the systems registry
type Operator struct {
	CountryCode       string   `json:"country_code" yaml:"country_code"`
	Name              string   `json:"name" yaml:"name"`
	Location          string   `json:"location" yaml:"location"`
	SystemID          string   `json:"system_id" yaml:"system_id"`
	URL               string   `json:"url" yaml:"url"`
	AutoDiscoveryURL  string   `json:"auto_discovery_url" yaml:"auto_discovery_url"`
	ValidationReport  string   `json:"validation_report,omitempty" yaml:"validation_report,omitempty"`
	SupportedVersions []string `json:"supported_versions,omitempty" yaml:"supported_versions,omitempty"`
}

// LatestVersion returns the newest GBFS version the operator publishes, or ""
// when the registry lists none
func (o Operator) LatestVersion() string {
	return versions.Latest(o.SupportedVersions)
}

// SupportsAtLeast reports whether any supported version is minimum or newer
func (o Operator) SupportsAtLeast(minimum string) bool {
	return slices.ContainsFunc(o.SupportedVersions, func(v string) bool {
		return versions.AtLeast(v, minimum)
	})
}
