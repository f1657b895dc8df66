package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/algogrid/internal/ctxlog"
)

// Module is the interface that unit packages implement to add their units
// to a catalog.
type Module interface {
	Register(c *Catalog) error
}

// Catalog holds the registered units of a single application instance.
type Catalog struct {
	mu       sync.RWMutex
	order    []*Descriptor
	byName   map[string]*Descriptor
	byOutput map[string]*Descriptor
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byName:   make(map[string]*Descriptor),
		byOutput: make(map[string]*Descriptor),
	}
}

// Register adds a unit. Names are unique and every output element may be
// produced by one unit only.
func (c *Catalog) Register(d *Descriptor) error {
	if d == nil || d.Schema == nil {
		return &Error{Err: ErrInvalidDescriptor, Detail: "descriptor has no schema"}
	}
	name := d.Name()
	if d.New == nil {
		return &Error{Algorithm: name, Err: ErrInvalidDescriptor, Detail: "descriptor has no constructor"}
	}
	if err := validateParams(d); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byName[name]; exists {
		return &Error{Algorithm: name, Err: ErrDuplicateAlgorithm}
	}
	for _, out := range d.Schema.Outputs() {
		if other, exists := c.byOutput[out.Name]; exists {
			return &Error{Algorithm: name, Element: out.Name, Err: ErrDuplicateProducer, Detail: fmt.Sprintf("produced by '%s'", other.Name())}
		}
	}

	c.byName[name] = d
	for _, out := range d.Schema.Outputs() {
		c.byOutput[out.Name] = d
	}
	c.order = append(c.order, d)
	return nil
}

// MustRegister is Register for static unit tables. It panics on error.
func (c *Catalog) MustRegister(d *Descriptor) {
	if err := c.Register(d); err != nil {
		panic(err)
	}
}

// LookupByName returns the unit with the given name.
func (c *Catalog) LookupByName(name string) (*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byName[name]
	if !ok {
		return nil, &Error{Algorithm: name, Err: ErrAlgorithmNotFound}
	}
	return d, nil
}

// LookupByOutput returns the unit producing the given element.
func (c *Catalog) LookupByOutput(elem string) (*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byOutput[elem]
	if !ok {
		return nil, &Error{Element: elem, Err: ErrElementNotProduced}
	}
	return d, nil
}

// All returns the registered units in registration order.
func (c *Catalog) All() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Descriptor(nil), c.order...)
}

// Names returns the registered unit names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.order))
	for i, d := range c.order {
		names[i] = d.Name()
	}
	return names
}

// Len returns the number of registered units.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Reset removes every registered unit.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = nil
	c.byName = make(map[string]*Descriptor)
	c.byOutput = make(map[string]*Descriptor)
}

// Populate registers the descriptors in order and stops at the first error.
func Populate(c *Catalog, descriptors ...*Descriptor) error {
	for _, d := range descriptors {
		if err := c.Register(d); err != nil {
			return fmt.Errorf("failed to populate catalog: %w", err)
		}
	}
	return nil
}

// Load lets every module register its units.
func Load(ctx context.Context, c *Catalog, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, mod := range modules {
		if err := mod.Register(c); err != nil {
			return fmt.Errorf("failed to register module %T: %w", mod, err)
		}
	}
	logger.Debug("All unit modules registered.", "modules", len(modules), "units", c.Len())
	return nil
}
