package milestone

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the versioned, read-only milestone table.
type Catalog struct {
	version    int
	milestones []Milestone
	byKey      map[string]int
}

type catalogFile struct {
	Version    int         `yaml:"version"`
	Milestones []Milestone `yaml:"milestones"`
}

// Default returns the catalog embedded in the binary, parsed once.
var Default = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultCatalog)
})

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown fields and categories
// are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if f.Version <= 0 {
		return nil, fmt.Errorf("catalog: version must be > 0")
	}

	c := &Catalog{
		version:    f.Version,
		milestones: f.Milestones,
		byKey:      make(map[string]int, len(f.Milestones)),
	}
	for i, m := range f.Milestones {
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.byKey[m.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", m.Key)
		}
		c.byKey[m.Key] = i
	}
	return c, nil
}

// Version returns the catalog's schema version.
func (c *Catalog) Version() int {
	return c.version
}

// All returns every milestone in catalog order.
func (c *Catalog) All() []Milestone {
	out := make([]Milestone, len(c.milestones))
	copy(out, c.milestones)
	return out
}

// ByCategory returns the milestones of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Milestone {
	var out []Milestone
	for _, m := range c.milestones {
		if m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the milestone with the given key.
func (c *Catalog) Lookup(key string) (Milestone, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Milestone{}, false
	}
	return c.milestones[i], true
}

// Eligible returns every milestone whose condition holds for f.
func (c *Catalog) Eligible(f Facts) []Milestone {
	var out []Milestone
	for _, m := range c.milestones {
		if m.Reached(f) {
			out = append(out, m)
		}
	}
	return out
}
