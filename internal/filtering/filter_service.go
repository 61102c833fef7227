package filtering

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// Criteria lists the include and exclude rules of both filters
type Criteria struct {
	IncludeIDs      []string
	ExcludeIDs      []string
	IncludeVersions []string
	ExcludeVersions []string
}

// Empty reports whether no rule is set
func (c Criteria) Empty() bool {
	return len(c.IncludeIDs) == 0 && len(c.ExcludeIDs) == 0 &&
		len(c.IncludeVersions) == 0 && len(c.ExcludeVersions) == 0
}

// Keys extracts the identifier and supported versions of an item
type Keys[T any] func(item T) (id string, versions []string)

// Apply returns the items passing both filters, in their original order
//
// The filtering process:
// 1. If no rule is specified, return the items unchanged
// 2. Compile the ID patterns; an invalid pattern fails the whole call
// 3. Keep only the items that pass both the ID and the version filter
func Apply[T any](logger logr.Logger, items []T, keys Keys[T], c Criteria) ([]T, error) {
	if c.Empty() {
		return items, nil
	}

	ids, err := NewIDFilter(c.IncludeIDs, c.ExcludeIDs)
	if err != nil {
		return nil, err
	}
	versions := NewVersionFilter(c.IncludeVersions, c.ExcludeVersions)

	selected := make([]T, 0, len(items))
	for _, item := range items {
		id, supported := keys(item)
		included, reason := shouldIncludeWithReason(ids, versions, id, supported)
		logger.V(2).Info("Filter decision", "id", id, "included", included, "reason", reason)
		if included {
			selected = append(selected, item)
		}
	}

	logger.V(1).Info("Filtering completed",
		"original", len(items),
		"selected", len(selected))
	return selected, nil
}

// shouldIncludeWithReason applies both filters. Both must pass.
func shouldIncludeWithReason(ids *IDFilter, versions *VersionFilter, id string, supported []string) (bool, string) {
	idIncluded, idReason := ids.ShouldInclude(id)
	if !idIncluded {
		return false, fmt.Sprintf("id filter: %s", idReason)
	}

	versionIncluded, versionReason := versions.ShouldInclude(supported)
	if !versionIncluded {
		return false, fmt.Sprintf("version filter: %s", versionReason)
	}

	reasons := []string{}
	if ids.Active() {
		reasons = append(reasons, fmt.Sprintf("id filter: %s", idReason))
	}
	if versions.Active() {
		reasons = append(reasons, fmt.Sprintf("version filter: %s", versionReason))
	}
	return true, "passed all filters: " + strings.Join(reasons, " AND ")
}
