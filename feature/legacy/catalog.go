package legacy

import (
	_ "embed"
	"fmt"
	"os"

	"legacy-mirror/core/coerce"
	"legacy-mirror/core/mapper"
	"legacy-mirror/core/registry"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the table catalog plus the coercion rules of the legacy system.
type Catalog struct {
	Rules  coerce.Rules                `yaml:"rules"`
	Tables []registry.TableDescriptor `yaml:"tables"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Tables) == 0 {
		return nil, fmt.Errorf("catalog declares no tables")
	}
	return &c, nil
}

// Registry validates the table list and builds the dependency registry.
func (c *Catalog) Registry() (*registry.Registry, error) {
	return registry.New(c.Tables)
}

// Mapper builds the record mapper with the legacy overrides installed.
func (c *Catalog) Mapper(opts ...mapper.Option) (*mapper.Mapper, error) {
	co, err := coerce.New(c.Rules)
	if err != nil {
		return nil, err
	}
	opts = append([]mapper.Option{mapper.WithOverrides(Overrides())}, opts...)
	return mapper.New(co, opts...), nil
}

// ApplyDefaultBatchSize sets n on every table that declares no batch size.
func (c *Catalog) ApplyDefaultBatchSize(n int) {
	if n <= 0 {
		return
	}
	for i := range c.Tables {
		if c.Tables[i].BatchSize == 0 {
			c.Tables[i].BatchSize = n
		}
	}
}
