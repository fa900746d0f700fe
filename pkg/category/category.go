// Package category maps client-facing category names to sets of severities.
package category

import (
	"strings"

	"github.com/ccollicutt/logscope/pkg/severity"
)

// DefaultSets returns the coarse categories clients use.
func DefaultSets() map[string][]severity.Severity {
	return map[string][]severity.Severity{
		"error":   {severity.Error, severity.Exception, severity.Assert},
		"warning": {severity.Warning},
		"info":    {severity.Info},
	}
}

// Mapper resolves category names. It is immutable after construction.
type Mapper struct {
	sets map[string]map[severity.Severity]bool
}

// NewMapper creates a Mapper from category name to severity set.
// A nil map uses DefaultSets.
func NewMapper(sets map[string][]severity.Severity) *Mapper {
	if sets == nil {
		sets = DefaultSets()
	}
	m := &Mapper{sets: make(map[string]map[severity.Severity]bool, len(sets))}
	for name, sevs := range sets {
		set := make(map[severity.Severity]bool, len(sevs))
		for _, s := range sevs {
			set[s] = true
		}
		m.sets[strings.ToLower(strings.TrimSpace(name))] = set
	}
	return m
}

// Resolve returns the filter for name. An empty name means no filter and
// returns nil.
func (m *Mapper) Resolve(name string) *Filter {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil
	}
	if set, ok := m.sets[key]; ok {
		return &Filter{name: key, set: set}
	}
	return &Filter{name: key, literal: true}
}

// Filter decides whether a severity passes a category.
type Filter struct {
	name    string
	set     map[severity.Severity]bool
	literal bool
}

// Name returns the normalized category name.
func (f *Filter) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Allows reports whether s passes the filter. A nil filter allows everything.
func (f *Filter) Allows(s severity.Severity) bool {
	if f == nil {
		return true
	}
	if f.literal {
		return strings.EqualFold(f.name, string(s))
	}
	return f.set[s]
}

// Severities returns the severities the filter admits, in canonical order.
func (f *Filter) Severities() []severity.Severity {
	var out []severity.Severity
	for _, s := range severity.All {
		if f.Allows(s) {
			out = append(out, s)
		}
	}
	return out
}
