package registry

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry is the static, queryable catalog of table descriptors.
// It is immutable after New and safe for concurrent use.
type Registry struct {
	tables []TableDescriptor
	index  map[string]int
}

// Level is one step of the dependency order.
type Level struct {
	Number int               `json:"level"`
	Tables []TableDescriptor `json:"tables"`
}

// New builds a registry from descriptors in declaration order.
// It fails when the catalog violates the authoring invariants (see Validate).
func New(tables []TableDescriptor) (*Registry, error) {
	r := &Registry{
		tables: make([]TableDescriptor, 0, len(tables)),
		index:  make(map[string]int, len(tables)),
	}
	for _, t := range tables {
		t.normalize()
		r.tables = append(r.tables, t)
	}
	if err := Validate(r.tables); err != nil {
		return nil, err
	}
	for i, t := range r.tables {
		r.index[t.Name] = i
	}
	return r, nil
}

// Parse decodes a YAML table list and builds a registry from it.
func Parse(data []byte) (*Registry, error) {
	var tables []TableDescriptor
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse table catalog: %w", err)
	}
	return New(tables)
}

// Validate checks the catalog invariants: names are unique and non-empty,
// every dependency is declared, and every dependency sits on a strictly lower
// level than its dependent (which also rules out cycles).
func Validate(tables []TableDescriptor) error {
	var errs []error
	byName := make(map[string]TableDescriptor, len(tables))

	for _, t := range tables {
		if t.Name == "" {
			errs = append(errs, errors.New("descriptor with empty name"))
			continue
		}
		if _, dup := byName[t.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate table %s", t.Name))
			continue
		}
		if t.Level < 0 {
			errs = append(errs, fmt.Errorf("table %s: negative level %d", t.Name, t.Level))
		}
		if t.BatchSize < 0 {
			errs = append(errs, fmt.Errorf("table %s: negative batch size %d", t.Name, t.BatchSize))
		}
		byName[t.Name] = t
	}

	for _, t := range tables {
		for _, dep := range t.Dependencies {
			if dep == t.Name {
				errs = append(errs, fmt.Errorf("table %s depends on itself", t.Name))
				continue
			}
			d, ok := byName[dep]
			if !ok {
				errs = append(errs, fmt.Errorf("table %s depends on unknown table %s", t.Name, dep))
				continue
			}
			if d.Level >= t.Level {
				errs = append(errs, fmt.Errorf("table %s (level %d) depends on %s (level %d): dependency level must be lower",
					t.Name, t.Level, dep, d.Level))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid table catalog: %w", errors.Join(errs...))
	}
	return nil
}

// Lookup returns the descriptor for a source table name.
func (r *Registry) Lookup(name string) (TableDescriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return TableDescriptor{}, false
	}
	return r.tables[i], true
}

// All returns every descriptor in declaration order.
func (r *Registry) All() []TableDescriptor {
	out := make([]TableDescriptor, len(r.tables))
	copy(out, r.tables)
	return out
}

// Enabled returns the enabled descriptors in declaration order.
func (r *Registry) Enabled() []TableDescriptor {
	var out []TableDescriptor
	for _, t := range r.tables {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// ByCategory returns the descriptors of one category in declaration order.
func (r *Registry) ByCategory(category string) []TableDescriptor {
	var out []TableDescriptor
	for _, t := range r.tables {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range r.tables {
		if _, ok := seen[t.Category]; ok || t.Category == "" {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}

// Levels groups every descriptor by level.
func (r *Registry) Levels() []Level {
	return GroupByLevel(r.tables)
}

// Order returns the full level-ordered traversal. Within a level tables keep
// declaration order.
func (r *Registry) Order() []TableDescriptor {
	var out []TableDescriptor
	for _, lvl := range r.Levels() {
		out = append(out, lvl.Tables...)
	}
	return out
}

// GroupByLevel groups descriptors by ascending level, preserving the input
// order within each level.
func GroupByLevel(tables []TableDescriptor) []Level {
	groups := make(map[int][]TableDescriptor)
	for _, t := range tables {
		groups[t.Level] = append(groups[t.Level], t)
	}

	numbers := make([]int, 0, len(groups))
	for n := range groups {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	levels := make([]Level, 0, len(numbers))
	for _, n := range numbers {
		levels = append(levels, Level{Number: n, Tables: groups[n]})
	}
	return levels
}
