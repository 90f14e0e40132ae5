package generator

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a named set of patterns. It is safe for concurrent use so the
// CLI can list patterns while an engine reads from the same catalog.
type Catalog struct {
	mu       sync.RWMutex
	patterns map[string]Pattern
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{patterns: make(map[string]Pattern)}
}

// DefaultCatalog returns a catalog holding the built-in patterns.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, p := range builtinPatterns() {
		if err := c.Register(p); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds a pattern. Registering an invalid pattern or a name that is
// already present is an error.
func (c *Catalog) Register(p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.patterns[p.Name]; exists {
		return fmt.Errorf("catalog: pattern %q already registered", p.Name)
	}
	// Copy the steps so the caller cannot mutate a registered pattern.
	p.Steps = append([]Step(nil), p.Steps...)
	c.patterns[p.Name] = p
	return nil
}

// Get returns the named pattern.
func (c *Catalog) Get(name string) (Pattern, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.patterns[name]
	if !ok {
		return Pattern{}, fmt.Errorf("catalog: unknown pattern %q", name)
	}
	return p, nil
}

// Exists reports whether a pattern is registered.
func (c *Catalog) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.patterns[name]
	return ok
}

// List returns every pattern sorted by name.
func (c *Catalog) List() []Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Len returns the number of registered patterns.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}
