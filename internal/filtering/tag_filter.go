package filtering

import (
	"fmt"
	"slices"
)

// VersionFilter selects operators by exact match on their supported GBFS versions
type VersionFilter struct {
	include []string
	exclude []string
}

// NewVersionFilter creates a VersionFilter
func NewVersionFilter(include, exclude []string) *VersionFilter {
	return &VersionFilter{include: include, exclude: exclude}
}

// Active reports whether any version is set
func (f *VersionFilter) Active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// ShouldInclude reports whether an operator supporting versions passes the filter and why
func (f *VersionFilter) ShouldInclude(versions []string) (bool, string) {
	for _, v := range versions {
		if slices.Contains(f.exclude, v) {
			return false, fmt.Sprintf("excluded by version '%s'", v)
		}
	}

	if len(f.include) > 0 {
		for _, v := range versions {
			if slices.Contains(f.include, v) {
				return true, fmt.Sprintf("included by version '%s'", v)
			}
		}
		return false, fmt.Sprintf("no matching version in include list %v (supported: %v)", f.include, versions)
	}

	if len(f.exclude) > 0 {
		return true, fmt.Sprintf("no matching version in exclude list %v", f.exclude)
	}
	return true, "no version filters specified"
}
