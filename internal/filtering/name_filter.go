package filtering

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// IDFilter selects identifiers using glob include/exclude patterns
type IDFilter struct {
	include []pattern
	exclude []pattern
}

type pattern struct {
	raw string
	g   glob.Glob
}

// NewIDFilter compiles include and exclude patterns. An invalid pattern is an error.
func NewIDFilter(include, exclude []string) (*IDFilter, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &IDFilter{include: inc, exclude: exc}, nil
}

func compilePatterns(raw []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(raw))
	for _, p := range raw {
		g, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern{raw: p, g: g})
	}
	return patterns, nil
}

// compilePattern compiles a glob whose '*' matches across any character.
// filepath.Match runs first because it rejects malformed classes gobwas accepts.
func compilePattern(p string) (glob.Glob, error) {
	if _, err := filepath.Match(p, "test"); err != nil {
		return nil, fmt.Errorf("'%s': %w", p, err)
	}
	g, err := glob.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("'%s': %v", p, err)
	}
	return g, nil
}

// Active reports whether any pattern is set
func (f *IDFilter) Active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// ShouldInclude reports whether id passes the filter and why
func (f *IDFilter) ShouldInclude(id string) (bool, string) {
	for _, p := range f.exclude {
		if p.g.Match(id) {
			return false, fmt.Sprintf("excluded by pattern '%s'", p.raw)
		}
	}

	if len(f.include) > 0 {
		for _, p := range f.include {
			if p.g.Match(id) {
				return true, fmt.Sprintf("included by pattern '%s'", p.raw)
			}
		}
		return false, "no match found in include patterns"
	}

	if len(f.exclude) > 0 {
		return true, "no match in exclude patterns"
	}
	return true, "no id filters specified"
}
