package systems

import (
	"strings"

	"github.com/go-logr/logr"

	"github.com/stacklok/gbfs-client/internal/filtering"
)

// Registry is an immutable snapshot of the operator registry
type Registry struct {
	source    string
	logger    logr.Logger
	operators []Operator
	index     []searchKeys
}

// searchKeys holds the normalized fields of the operator at the same index
type searchKeys struct {
	countryCode string
	name        string
	location    string
	systemID    string
}

func newRegistry(source string, operators []Operator, logger logr.Logger) *Registry {
	index := make([]searchKeys, len(operators))
	for i, op := range operators {
		index[i] = searchKeys{
			countryCode: Normalize(op.CountryCode),
			name:        Normalize(op.Name),
			location:    Normalize(op.Location),
			systemID:    Normalize(op.SystemID),
		}
	}
	return &Registry{
		source:    source,
		logger:    logger,
		operators: operators,
		index:     index,
	}
}

// Source returns the URL or file the registry was loaded from
func (r *Registry) Source() string {
	return r.source
}

// All returns every operator in source order.
// The slice is shared with the registry; callers must not modify it.
func (r *Registry) All() []Operator {
	return r.operators
}

// Len returns the number of operators
func (r *Registry) Len() int {
	return len(r.operators)
}

// FindByLocation returns the operators whose location contains text.
// An empty text matches nothing.
func (r *Registry) FindByLocation(text string) []Operator {
	if text == "" {
		return []Operator{}
	}
	needle := Normalize(text)
	return r.collect(func(k searchKeys) bool { return strings.Contains(k.location, needle) })
}

// FindByName returns the operators whose name contains text.
// An empty text matches nothing.
func (r *Registry) FindByName(text string) []Operator {
	if text == "" {
		return []Operator{}
	}
	needle := Normalize(text)
	return r.collect(func(k searchKeys) bool { return strings.Contains(k.name, needle) })
}

// FindByCountryCode returns the operators of country code, e.g. "CA".
// An empty code matches nothing.
func (r *Registry) FindByCountryCode(code string) []Operator {
	if code == "" {
		return []Operator{}
	}
	needle := Normalize(code)
	return r.collect(func(k searchKeys) bool { return k.countryCode == needle })
}

// FindBySystemID returns the operator with system ID id. When several rows
// share the ID the first one wins and a warning is logged. An empty id matches nothing.
func (r *Registry) FindBySystemID(id string) (Operator, bool) {
	if id == "" {
		return Operator{}, false
	}
	needle := Normalize(id)

	first, matches := -1, 0
	for i, k := range r.index {
		if k.systemID != needle {
			continue
		}
		if first < 0 {
			first = i
		}
		matches++
	}

	if first < 0 {
		return Operator{}, false
	}
	if matches > 1 {
		r.logger.Info("Multiple systems found with the same ID, returning the first match",
			"system_id", id,
			"matches", matches)
	}
	return r.operators[first], true
}

// Criteria selects operators by system ID globs and supported GBFS versions.
// ID patterns are compared after Normalize.
type Criteria struct {
	IncludeIDs      []string
	ExcludeIDs      []string
	IncludeVersions []string
	ExcludeVersions []string
	// MinVersion keeps operators publishing at least this GBFS version
	MinVersion string
}

// Filter returns the operators whose system ID matches the include globs and
// none of the exclude globs
func (r *Registry) Filter(include, exclude []string) ([]Operator, error) {
	return r.Select(Criteria{IncludeIDs: include, ExcludeIDs: exclude})
}

// Select returns the operators passing c, in source order
func (r *Registry) Select(c Criteria) ([]Operator, error) {
	criteria := filtering.Criteria{
		IncludeIDs:      normalizeAll(c.IncludeIDs),
		ExcludeIDs:      normalizeAll(c.ExcludeIDs),
		IncludeVersions: c.IncludeVersions,
		ExcludeVersions: c.ExcludeVersions,
	}

	indexes := make([]int, len(r.operators))
	for i := range indexes {
		indexes[i] = i
	}
	selected, err := filtering.Apply(r.logger, indexes, func(i int) (string, []string) {
		return r.index[i].systemID, r.operators[i].SupportedVersions
	}, criteria)
	if err != nil {
		return nil, err
	}

	operators := make([]Operator, 0, len(selected))
	for _, i := range selected {
		op := r.operators[i]
		if c.MinVersion != "" && !op.SupportsAtLeast(c.MinVersion) {
			r.logger.V(2).Info("Skipping system below minimum version",
				"system_id", op.SystemID,
				"min_version", c.MinVersion)
			continue
		}
		operators = append(operators, op)
	}
	return operators, nil
}

func (r *Registry) collect(match func(searchKeys) bool) []Operator {
	found := []Operator{}
	for i, k := range r.index {
		if match(k) {
			found = append(found, r.operators[i])
		}
	}
	return found
}

func normalizeAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}
