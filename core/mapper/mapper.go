package mapper

import (
	"errors"
	"fmt"
	"sort"

	"legacy-mirror/core/coerce"

	"gorm.io/gorm/schema"
)

// SourceRecord is one raw row as read from the legacy source.
type SourceRecord map[string]any

// TargetRecord is the mapped, coerced row keyed by target column names.
type TargetRecord map[string]any

// Override is a table-specific step run after the generic rules.
// src holds the raw values under normalized names; dst may be modified freely
// (rename, recompute, delete). Values written by an override always win.
type Override func(src SourceRecord, dst TargetRecord) error

// Error reports a row that could not be mapped.
type Error struct {
	Table string
	// Key is the raw primary key value, nil when it could not be determined.
	Key any
	Err error
}

func (e *Error) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("map %s[%v]: %v", e.Table, e.Key, e.Err)
	}
	return fmt.Sprintf("map %s: %v", e.Table, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrMissingPrimaryKey is wrapped when a mapped record has no usable key.
var ErrMissingPrimaryKey = errors.New("missing primary key")

// Option configures a Mapper.
type Option func(*Mapper)

// WithOverride registers the override for one source table.
func WithOverride(table string, fn Override) Option {
	return func(m *Mapper) {
		m.overrides[table] = fn
	}
}

// WithOverrides registers several overrides at once.
func WithOverrides(overrides map[string]Override) Option {
	return func(m *Mapper) {
		for table, fn := range overrides {
			m.overrides[table] = fn
		}
	}
}

// WithNamer replaces the default snake_case name normalization.
func WithNamer(n schema.Namer) Option {
	return func(m *Mapper) {
		m.namer = n
	}
}

// Mapper converts source rows into target records.
// It is immutable after New and safe for concurrent use.
type Mapper struct {
	coercer   *coerce.Coercer
	namer     schema.Namer
	overrides map[string]Override
}

// New creates a mapper on top of a coercer.
func New(co *coerce.Coercer, opts ...Option) *Mapper {
	m := &Mapper{
		coercer:   co,
		namer:     schema.NamingStrategy{},
		overrides: make(map[string]Override),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Coercer returns the coercion layer the mapper is built on.
func (m *Mapper) Coercer() *coerce.Coercer {
	return m.coercer
}

// HasOverride reports whether a table has a specific override.
func (m *Mapper) HasOverride(table string) bool {
	_, ok := m.overrides[table]
	return ok
}

// NormalizeName converts a source column name to the target convention.
func (m *Mapper) NormalizeName(name string) string {
	return m.namer.ColumnName("", name)
}

// Normalize renames every field of src to the target convention without
// coercing values. Columns are visited in sorted order so that two source
// names colliding after normalization resolve deterministically.
func (m *Mapper) Normalize(src SourceRecord) SourceRecord {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(SourceRecord, len(src))
	for _, k := range keys {
		out[m.NormalizeName(k)] = src[k]
	}
	return out
}

// Map converts one source row of table. primaryKey is the mapped name of the
// natural key and must be present and non-nil in the result.
func (m *Mapper) Map(table, primaryKey string, src SourceRecord) (TargetRecord, error) {
	norm := m.Normalize(src)
	dst := make(TargetRecord, len(norm))
	pending := make(map[string]error)

	for field, raw := range norm {
		if m.coercer.Dropped(table, field) {
			continue
		}
		val, err := m.coercer.Coerce(table, field, raw)
		if err != nil {
			pending[field] = err
			continue
		}
		dst[field] = val
	}

	if fn, ok := m.overrides[table]; ok {
		if err := fn(norm, dst); err != nil {
			return nil, &Error{Table: table, Key: norm[primaryKey], Err: err}
		}
	}

	// An override that wrote the field resolved the generic failure
	var errs []error
	for field, err := range pending {
		if _, fixed := dst[field]; fixed {
			continue
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, &Error{Table: table, Key: norm[primaryKey], Err: errors.Join(errs...)}
	}

	if v, ok := dst[primaryKey]; !ok || v == nil {
		return nil, &Error{Table: table, Err: fmt.Errorf("%w %q", ErrMissingPrimaryKey, primaryKey)}
	}
	return dst, nil
}
