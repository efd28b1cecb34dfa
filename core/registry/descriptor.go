package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPrimaryKey is the natural key field used when a descriptor names none.
	DefaultPrimaryKey = "id"
	// DefaultWatermarkField is the change timestamp used when a descriptor names none.
	DefaultWatermarkField = "updated_at"
)

// TableDescriptor is the static configuration of one synchronized table.
// Descriptors are values; copies handed out by the Registry may be modified freely.
type TableDescriptor struct {
	// Name is the source table identifier.
	Name string `yaml:"name" json:"name"`
	// TargetEntity is the target table the mapped records are written to.
	TargetEntity string `yaml:"target" json:"target_entity"`
	// PrimaryKey is the natural key field (mapped name).
	PrimaryKey string `yaml:"primary_key" json:"primary_key"`
	// WatermarkField is the monotonic timestamp used for incremental pulls.
	WatermarkField string `yaml:"watermark_field" json:"watermark_field"`
	// Dependencies are tables that must be synchronized first.
	Dependencies []string `yaml:"depends_on" json:"dependencies"`
	// Level is the position in the dependency order; equal levels may run concurrently.
	Level int `yaml:"level" json:"level"`
	// BatchSize bounds the rows pulled per run; 0 is unbounded.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Enabled excludes the table from "all"/category selections when false.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Category groups tables for display and selection.
	Category string `yaml:"category" json:"category"`
	// DiffExclude lists mapped fields that never count as a change.
	DiffExclude []string `yaml:"diff_exclude" json:"diff_exclude,omitempty"`
}

// UnmarshalYAML applies descriptor defaults before decoding, so omitted keys
// keep their defaults and an explicit "enabled: false" still wins.
func (d *TableDescriptor) UnmarshalYAML(value *yaml.Node) error {
	type plain TableDescriptor
	p := plain{
		PrimaryKey:     DefaultPrimaryKey,
		WatermarkField: DefaultWatermarkField,
		Enabled:        true,
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = TableDescriptor(p)
	d.normalize()
	return nil
}

func (d *TableDescriptor) normalize() {
	if d.TargetEntity == "" {
		d.TargetEntity = d.Name
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}
	if d.WatermarkField == "" {
		d.WatermarkField = DefaultWatermarkField
	}
}

// DependsOn reports whether table is a declared dependency.
func (d TableDescriptor) DependsOn(table string) bool {
	for _, dep := range d.Dependencies {
		if dep == table {
			return true
		}
	}
	return false
}

// Overrides carries operator tuning persisted next to a table's sync state.
type Overrides struct {
	PrimaryKey     string `json:"primary_key,omitempty"`
	WatermarkField string `json:"watermark_field,omitempty"`
	BatchSize      *int   `json:"batch_size,omitempty"`
}

// IsZero reports whether the overrides change nothing.
func (o Overrides) IsZero() bool {
	return o.PrimaryKey == "" && o.WatermarkField == "" && o.BatchSize == nil
}

// Apply returns a copy of d with the overrides applied.
func (d TableDescriptor) Apply(o Overrides) (TableDescriptor, error) {
	if o.PrimaryKey != "" {
		d.PrimaryKey = o.PrimaryKey
	}
	if o.WatermarkField != "" {
		d.WatermarkField = o.WatermarkField
	}
	if o.BatchSize != nil {
		if *o.BatchSize < 0 {
			return d, fmt.Errorf("table %s: batch_size override must not be negative", d.Name)
		}
		d.BatchSize = *o.BatchSize
	}
	return d, nil
}
